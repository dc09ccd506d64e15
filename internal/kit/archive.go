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

package kit

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// archiveEpoch is the modification time of every archive entry so that
// identical contents produce identical archive bytes
var archiveEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// File is a single archive entry
type File struct {
	Name       string
	Data       []byte
	Executable bool
}

// CreateZip writes files into a zip archive with entries sorted by name
// and fixed timestamps. Already-compressed entries are stored as-is.
func CreateZip(files []File) ([]byte, error) {
	sorted := make([]File, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)

	for i, f := range sorted {
		if i > 0 && sorted[i-1].Name == f.Name {
			zipWriter.Close()
			return nil, fmt.Errorf("duplicate archive entry %q", f.Name)
		}

		header := &zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: archiveEpoch,
		}
		if strings.HasSuffix(f.Name, ".zip") {
			header.Method = zip.Store
		}
		if f.Executable {
			header.SetMode(0755)
		} else {
			header.SetMode(0644)
		}

		fileWriter, err := zipWriter.CreateHeader(header)
		if err != nil {
			if closeErr := zipWriter.Close(); closeErr != nil {
				return nil, fmt.Errorf("failed to create file in zip: %w (close error: %v)", err, closeErr)
			}
			return nil, fmt.Errorf("failed to create file in zip: %w", err)
		}
		if _, err := fileWriter.Write(f.Data); err != nil {
			if closeErr := zipWriter.Close(); closeErr != nil {
				return nil, fmt.Errorf("failed to write file content: %w (close error: %v)", err, closeErr)
			}
			return nil, fmt.Errorf("failed to write file content: %w", err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zip writer: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadZip returns the entries of a zip archive keyed by name
func ReadZip(data []byte) (map[string][]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}

	entries := make(map[string][]byte, len(reader.File))
	for _, f := range reader.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		entries[f.Name] = content
	}
	return entries, nil
}
