// Copyright 2025 Shale Authors
// SPDX-License-Identifier: Apache-2.0

package types

import "io"

// ObjectStream carries an object's content between the storage backend
// and callers. Ownership of Body transfers with the value: whoever holds
// the stream last must drain or close it.
type ObjectStream struct {
	Key           string
	ContentLength int64
	Body          io.ReadCloser
}

// Close releases the underlying stream. Safe on a nil body.
func (s *ObjectStream) Close() error {
	if s == nil || s.Body == nil {
		return nil
	}
	return s.Body.Close()
}
