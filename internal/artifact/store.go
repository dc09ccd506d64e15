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
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// ID is the content address of a stored artifact: the hex encoded BLAKE3
// keyed hash of its bytes
type ID string

// Store persists immutable artifacts addressed by their content
type Store interface {
	// Put stores data and returns its ID. Storing identical bytes twice
	// returns the same ID.
	Put(ctx context.Context, data []byte) (ID, error)
	// Get returns the exact bytes stored under id, or
	// constants.ErrArtifactNotFound
	Get(ctx context.Context, id ID) ([]byte, error)
	Exists(ctx context.Context, id ID) (bool, error)
}

// kitDomainKey separates startup kit hashes from any other use of BLAKE3
// keyed hashing. Changing it invalidates every stored artifact id.
var kitDomainKey = [32]byte{
	's', 'o', 'r', 'a', '.', 'p', 'r', 'o', 'v', 'i', 's', 'i', 'o', 'n', 'i', 'n',
	'g', '.', 'k', 'i', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// HashID computes the artifact id of data
func HashID(data []byte) ID {
	hasher, err := blake3.NewKeyed(kitDomainKey[:])
	if err != nil {
		panic("artifact: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	return ID(hex.EncodeToString(hasher.Sum(nil)))
}

// Validate checks that id is a well-formed artifact id
func (id ID) Validate() error {
	if len(id) != 64 {
		return fmt.Errorf("invalid artifact id %q: expected 64 hex characters", string(id))
	}
	if _, err := hex.DecodeString(string(id)); err != nil {
		return fmt.Errorf("invalid artifact id %q: %w", string(id), err)
	}
	return nil
}

func (id ID) String() string {
	return string(id)
}
