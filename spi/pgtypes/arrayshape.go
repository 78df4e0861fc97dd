/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package pgtypes

import (
	"github.com/go-errors/errors"
	"github.com/varlenahq/pg-datum-marshal/internal/functional"
)

// ArrayShape decouples walking the array binary layout from the host
// aggregate being produced. Begin allocates the aggregate for the
// given dimensionality; the returned writer is filled slot by slot in
// row-major order and sealed with Finish.
type ArrayShape interface {
	Begin(dims, bounds []int32) (ArrayWriter, error)
}

type ArrayWriter interface {
	// Set stores value at the row-major flat index; nil marks a
	// database NULL.
	Set(index int, value any) error
	Finish() (any, error)
}

// FlatArray is the aggregate produced by FlatShape: the element
// sequence in row-major order plus the original dimensionality.
type FlatArray struct {
	Dims     []int32
	Bounds   []int32
	Elements []any
}

// FlatShape produces a FlatArray regardless of dimensionality.
type FlatShape struct{}

func (FlatShape) Begin(
	dims, bounds []int32,
) (ArrayWriter, error) {

	n := functional.Product(dims)
	return &flatWriter{
		result: FlatArray{
			Dims:     dims,
			Bounds:   bounds,
			Elements: make([]any, n),
		},
	}, nil
}

type flatWriter struct {
	result FlatArray
}

func (w *flatWriter) Set(
	index int, value any,
) error {

	if index < 0 || index >= len(w.result.Elements) {
		return errors.Errorf("array slot %d out of range [0, %d)", index, len(w.result.Elements))
	}
	w.result.Elements[index] = value
	return nil
}

func (w *flatWriter) Finish() (any, error) {
	return w.result, nil
}

// NestedShape produces nested []any slices, one level per dimension.
// A zero-dimensional payload finishes as an empty []any.
type NestedShape struct{}

func (NestedShape) Begin(
	dims, bounds []int32,
) (ArrayWriter, error) {

	return &nestedWriter{
		dims: dims,
		flat: make([]any, functional.Product(dims)),
	}, nil
}

type nestedWriter struct {
	dims []int32
	flat []any
}

func (w *nestedWriter) Set(
	index int, value any,
) error {

	if index < 0 || index >= len(w.flat) {
		return errors.Errorf("array slot %d out of range [0, %d)", index, len(w.flat))
	}
	w.flat[index] = value
	return nil
}

func (w *nestedWriter) Finish() (any, error) {
	if len(w.dims) == 0 {
		return []any{}, nil
	}
	result, _ := nest(w.flat, w.dims)
	return result, nil
}

func nest(
	flat []any, dims []int32,
) (any, int) {

	if len(dims) == 1 {
		n := int(dims[0])
		chunk := make([]any, n)
		copy(chunk, flat[:n])
		return chunk, n
	}

	outer := make([]any, dims[0])
	consumed := 0
	for i := range outer {
		inner, n := nest(flat[consumed:], dims[1:])
		outer[i] = inner
		consumed += n
	}
	return outer, consumed
}
