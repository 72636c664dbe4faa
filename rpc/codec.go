// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"encoding/json"
	"io"

	"github.com/libp2p/go-msgio"

	"github.com/bitmark-inc/flipstarterd/fault"
)

// MaximumMessageSize - largest request or response accepted
const MaximumMessageSize = 1 << 20

// ErrorBody - error part of a failed response
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Response - envelope of every reply
type Response struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
}

// Err - the remote error as a local value, nil if OK
func (r *Response) Err() error {
	if r.OK {
		return nil
	}
	if nil == r.Error {
		return &RemoteError{Kind: "ProcessError", Message: "malformed response"}
	}
	return &RemoteError{Kind: r.Error.Kind, Message: r.Error.Message}
}

// RemoteError - an error reported by the serving node
type RemoteError struct {
	Kind    string
	Message string
}

func (e *RemoteError) Error() string {
	return e.Kind + ": " + e.Message
}

func readMessage(r io.Reader, v interface{}) error {
	reader := msgio.NewVarintReaderSize(r, MaximumMessageSize)
	buffer, err := reader.ReadMsg()
	if nil != err {
		return err
	}
	defer reader.ReleaseMsg(buffer)

	err = json.Unmarshal(buffer, v)
	if nil != err {
		return fault.ErrInvalidRequest
	}
	return nil
}

func writeMessage(w io.Writer, v interface{}) error {
	buffer, err := json.Marshal(v)
	if nil != err {
		return err
	}
	return msgio.NewVarintWriter(w).WriteMsg(buffer)
}

func writeResult(w io.Writer, result interface{}) error {
	buffer, err := json.Marshal(result)
	if nil != err {
		return writeError(w, err)
	}
	return writeMessage(w, &Response{
		OK:     true,
		Result: buffer,
	})
}

func writeError(w io.Writer, err error) error {
	return writeMessage(w, &Response{
		OK: false,
		Error: &ErrorBody{
			Kind:    fault.Kind(err),
			Message: err.Error(),
		},
	})
}
