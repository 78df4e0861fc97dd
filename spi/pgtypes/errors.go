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
	"fmt"

	"github.com/go-errors/errors"
)

// DecodeError is a data error: the binary payload disagrees with what
// the configured decoder expects. It carries expected versus found
// context for diagnostics and is never the result of a caller bug.
type DecodeError struct {
	Op       string
	Expected string
	Found    string
}

func (e *DecodeError) Error() string {
	if e.Expected == "" && e.Found == "" {
		return fmt.Sprintf("decode %s: malformed payload", e.Op)
	}
	return fmt.Sprintf("decode %s: expected %s, found %s", e.Op, e.Expected, e.Found)
}

// NewDecodeError wraps a DecodeError with stack context.
func NewDecodeError(
	op, expected, found string,
) error {

	return errors.Wrap(&DecodeError{
		Op:       op,
		Expected: expected,
		Found:    found,
	}, 1)
}

// AsDecodeError unwraps err down to a DecodeError if one is present.
func AsDecodeError(
	err error,
) (*DecodeError, bool) {

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return decodeErr, true
	}
	return nil, false
}
