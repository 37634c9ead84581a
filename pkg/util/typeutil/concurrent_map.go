// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package typeutil

import (
	"sync"
)

// ConcurrentMap 是 sync.Map 的泛型封装，
// 适用于读多写少、且写入以“首次插入”为主的场景。
type ConcurrentMap[K comparable, V any] struct {
	inner sync.Map
	// size 单独维护元素个数，sync.Map 自身没有 Len 语义。
	size  int
	sizeL sync.Mutex
}

func NewConcurrentMap[K comparable, V any]() *ConcurrentMap[K, V] {
	return &ConcurrentMap[K, V]{}
}

// Insert 插入或覆盖指定 key 对应的值。
func (m *ConcurrentMap[K, V]) Insert(key K, value V) {
	m.sizeL.Lock()
	defer m.sizeL.Unlock()
	if _, loaded := m.inner.Load(key); !loaded {
		m.size++
	}
	m.inner.Store(key, value)
}

// Get 返回指定 key 对应的值。
// 第二个返回值表示 key 是否存在。
func (m *ConcurrentMap[K, V]) Get(key K) (V, bool) {
	var zero V
	value, ok := m.inner.Load(key)
	if !ok {
		return zero, false
	}
	return value.(V), true
}

// GetOrInsert 返回指定 key 对应的值；
// 如果 key 不存在，则插入给定值并返回。
// 第二个返回值表示 key 是否原本已存在。
func (m *ConcurrentMap[K, V]) GetOrInsert(key K, value V) (V, bool) {
	m.sizeL.Lock()
	defer m.sizeL.Unlock()
	actual, loaded := m.inner.LoadOrStore(key, value)
	if !loaded {
		m.size++
	}
	return actual.(V), loaded
}

// Remove 删除指定 key。
// key 不存在时忽略。
func (m *ConcurrentMap[K, V]) Remove(key K) {
	m.sizeL.Lock()
	defer m.sizeL.Unlock()
	if _, loaded := m.inner.LoadAndDelete(key); loaded {
		m.size--
	}
}

// Contain 判断指定 key 是否存在。
func (m *ConcurrentMap[K, V]) Contain(key K) bool {
	_, ok := m.inner.Load(key)
	return ok
}

// Len 返回当前元素个数。
func (m *ConcurrentMap[K, V]) Len() int {
	m.sizeL.Lock()
	defer m.sizeL.Unlock()
	return m.size
}

// Range 遍历所有键值对。
// 当回调返回 false 时提前终止遍历。
func (m *ConcurrentMap[K, V]) Range(f func(key K, value V) bool) {
	m.inner.Range(func(key, value any) bool {
		return f(key.(K), value.(V))
	})
}
