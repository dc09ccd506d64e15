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

package websocket

import (
	"sync"
	"sync/atomic"
	"time"
)

// DeliveryStats tracks event delivery counters for one connection. The
// counters are atomic so broadcasts from several goroutines can update them
// without holding the connection lock.
type DeliveryStats struct {
	TotalEventsSent  int64
	FailedDeliveries int64

	mu                sync.Mutex
	lastFailureTime   time.Time
	lastFailureReason string
}

// IncrementTotalSent counts one delivery attempt
func (s *DeliveryStats) IncrementTotalSent() {
	atomic.AddInt64(&s.TotalEventsSent, 1)
}

// IncrementFailed counts one failed delivery and records why it failed
func (s *DeliveryStats) IncrementFailed(reason string) {
	atomic.AddInt64(&s.FailedDeliveries, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFailureTime = time.Now()
	s.lastFailureReason = reason
}

// GetTotalSent returns the number of delivery attempts
func (s *DeliveryStats) GetTotalSent() int64 {
	return atomic.LoadInt64(&s.TotalEventsSent)
}

// GetFailedCount returns the number of failed deliveries
func (s *DeliveryStats) GetFailedCount() int64 {
	return atomic.LoadInt64(&s.FailedDeliveries)
}

// LastFailure returns the time and reason of the most recent failure
func (s *DeliveryStats) LastFailure() (time.Time, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFailureTime, s.lastFailureReason
}

// GetSuccessRate returns the percentage of successful deliveries, 100 when
// nothing has been sent yet
func (s *DeliveryStats) GetSuccessRate() float64 {
	total := s.GetTotalSent()
	if total == 0 {
		return 100.0
	}
	successful := total - s.GetFailedCount()
	return (float64(successful) / float64(total)) * 100.0
}
