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
	"time"

	"github.com/SoraChain-AI/Sora-provisioning-tool/internal/constants"

	"github.com/cenkalti/backoff/v4"
)

const defaultInitialInterval = 100 * time.Millisecond

// RetryingStore retries transient Put and Get failures of the wrapped store
// with bounded exponential backoff
type RetryingStore struct {
	store           Store
	maxRetries      uint64
	initialInterval time.Duration
}

// RetryOption configures a RetryingStore
type RetryOption func(*RetryingStore)

// WithInitialInterval overrides the first backoff delay
func WithInitialInterval(d time.Duration) RetryOption {
	return func(s *RetryingStore) {
		s.initialInterval = d
	}
}

// NewRetryingStore wraps store, retrying each call at most maxRetries times
func NewRetryingStore(store Store, maxRetries int, opts ...RetryOption) *RetryingStore {
	if maxRetries < 0 {
		maxRetries = 0
	}
	s := &RetryingStore{
		store:           store,
		maxRetries:      uint64(maxRetries),
		initialInterval: defaultInitialInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RetryingStore) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.initialInterval
	exp.MaxInterval = 2 * time.Second
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, s.maxRetries), ctx)
}

// permanent stops retrying for errors a retry cannot fix
func permanent(err error) error {
	if errors.Is(err, constants.ErrArtifactNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return backoff.Permanent(err)
	}
	return err
}

func (s *RetryingStore) Put(ctx context.Context, data []byte) (ID, error) {
	var id ID
	err := backoff.Retry(func() error {
		var err error
		id, err = s.store.Put(ctx, data)
		return permanent(err)
	}, s.policy(ctx))
	return id, err
}

func (s *RetryingStore) Get(ctx context.Context, id ID) ([]byte, error) {
	var data []byte
	err := backoff.Retry(func() error {
		var err error
		data, err = s.store.Get(ctx, id)
		return permanent(err)
	}, s.policy(ctx))
	return data, err
}

func (s *RetryingStore) Exists(ctx context.Context, id ID) (bool, error) {
	return s.store.Exists(ctx, id)
}
