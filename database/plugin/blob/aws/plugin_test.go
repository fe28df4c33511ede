// Copyright 2025 Blink Labs Software
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

package aws

import (
	"testing"
)

func TestNewFromCmdlineOptions(t *testing.T) {
	// Save original options
	cmdlineOptionsMutex.Lock()
	originalOptions := cmdlineOptions
	cmdlineOptions.bucket = "test-bucket"
	cmdlineOptions.region = "us-east-1"
	cmdlineOptions.prefix = "test-prefix"
	cmdlineOptionsMutex.Unlock()
	defer func() {
		cmdlineOptionsMutex.Lock()
		cmdlineOptions = originalOptions
		cmdlineOptionsMutex.Unlock()
	}()

	p := NewFromCmdlineOptions()
	if p == nil {
		t.Fatal("Expected plugin to be created, got nil")
	}
	store, ok := p.(*BlobStoreS3)
	if !ok {
		t.Fatalf("Expected *BlobStoreS3, got %T", p)
	}
	if store.bucket != "test-bucket" {
		t.Errorf("Expected bucket 'test-bucket', got '%s'", store.bucket)
	}
	if store.region != "us-east-1" {
		t.Errorf("Expected region 'us-east-1', got '%s'", store.region)
	}
	if store.prefix != "test-prefix" {
		t.Errorf("Expected prefix 'test-prefix', got '%s'", store.prefix)
	}
}
