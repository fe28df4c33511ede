// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event

import (
	"sync"
	"testing"
)

// TestPublishUnsubscribeRace attempts to reproduce the race between Publish
// and Unsubscribe/Stop where a send could hit a concurrently closing
// channel. The test runs many iterations to probabilistically surface
// races; the implementation should never panic.
func TestPublishUnsubscribeRace(t *testing.T) {
	const iters = 1000
	for range iters {
		eb := NewEventBus(nil, nil)
		typ := EventType("race.test")

		subId, ch := eb.Subscribe(typ)

		var wg sync.WaitGroup
		wg.Add(3)

		// Publisher goroutine
		go func() {
			defer wg.Done()
			// Publish many events to increase chance of overlapping with close
			for j := range 10 {
				eb.Publish(typ, NewEvent(typ, j))
			}
		}()

		// Concurrently unsubscribe and stop the bus
		go func() {
			defer wg.Done()
			eb.Unsubscribe(typ, subId)
			eb.Stop()
		}()

		// Drain channel until closed
		go func() {
			defer wg.Done()
			for range ch {
			}
		}()

		wg.Wait()
	}
}

// TestConcurrentSubscribePublish exercises subscription churn while
// publishers are active on the same type. Every subscription drains
// concurrently so a full channel can never wedge a publisher.
func TestConcurrentSubscribePublish(t *testing.T) {
	eb := NewEventBus(nil, nil)
	defer eb.Stop()
	typ := EventType("race.churn")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				subId, ch := eb.Subscribe(typ)
				done := make(chan struct{})
				go func() {
					for range ch {
					}
					close(done)
				}()
				eb.Publish(typ, NewEvent(typ, nil))
				eb.Unsubscribe(typ, subId)
				<-done
			}
		}()
	}
	wg.Wait()
}
