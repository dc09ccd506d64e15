/*
 *  Copyright (c) 2025, WSO2 LLC. (http://www.wso2.org) All Rights Reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 *
 */

package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"
)

// FileStore keeps artifacts under a workspace directory, sharded by the
// first two characters of the id: <dir>/<id[0:2]>/<id>.blob
type FileStore struct {
	dir   string
	codec Codec
}

// NewFileStore creates the workspace directory if needed
func NewFileStore(dir string, codec Codec) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace directory: %w", err)
	}
	return &FileStore{dir: dir, codec: codec}, nil
}

func (s *FileStore) path(id ID) string {
	return filepath.Join(s.dir, string(id[:2]), string(id)+".blob")
}

// Put writes data atomically through a temp file and rename. Existing
// artifacts are not rewritten.
func (s *FileStore) Put(ctx context.Context, data []byte) (ID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := HashID(data)
	target := s.path(id)
	if _, err := os.Stat(target); err == nil {
		return id, nil
	}

	blob, err := encode(s.codec, data)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("failed to create shard directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-"+string(id[:8])+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return "", fmt.Errorf("failed to publish artifact: %w", err)
	}
	return id, nil
}

// Get reads and verifies an artifact
func (s *FileStore) Get(ctx context.Context, id ID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := id.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", constants.ErrArtifactNotFound, err)
	}

	blob, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, constants.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", id, err)
	}

	data, err := decode(blob)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", id, err)
	}
	if HashID(data) != id {
		return nil, fmt.Errorf("artifact %s failed integrity check", id)
	}
	return data, nil
}

// Exists reports whether an artifact is stored
func (s *FileStore) Exists(ctx context.Context, id ID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if id.Validate() != nil {
		return false, nil
	}
	_, err := os.Stat(s.path(id))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
