// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison
package fault

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type StateError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised       = ProcessError("already initialised")
	ErrCampaignAlreadyExists    = ExistsError("campaign already exists")
	ErrCampaignDoesNotExist     = NotFoundError("campaign does not exist")
	ErrCampaignExpired          = StateError("campaign has expired")
	ErrCampaignFulfilled        = StateError("campaign is already fulfilled")
	ErrCampaignNotPublished     = NotFoundError("campaign has no published snapshot")
	ErrCampaignNotStarted       = StateError("campaign has not started")
	ErrContributionVerification = InvalidError("contribution verification failed")
	ErrDatabaseIsNotSet         = ProcessError("database is not set")
	ErrDuplicateCommitment      = ExistsError("duplicate commitment")
	ErrInvalidCampaignData      = InvalidError("invalid campaign data")
	ErrInvalidCommitment        = InvalidError("invalid commitment")
	ErrInvalidKeyData           = InvalidError("invalid key data")
	ErrInvalidPassphrase        = InvalidError("invalid passphrase")
	ErrInvalidPeerAddress       = InvalidError("invalid peer address")
	ErrInvalidRequest           = InvalidError("invalid request")
	ErrKeyExists                = ExistsError("key already exists")
	ErrKeyNotFound              = NotFoundError("key not found")
	ErrMissingPrivateKey        = InvalidError("missing private key")
	ErrNotInitialised           = ProcessError("not initialised")
	ErrObjectNotFound           = NotFoundError("object not found")
	ErrRateLimited              = ProcessError("rate limit exceeded")
	ErrRelayNotCapable          = ProcessError("peer cannot act as relay")
	ErrStorageInconsistency     = ProcessError("storage inconsistency")
	ErrWatcherUnavailable       = ProcessError("commitment watcher unavailable")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e StateError) Error() string    { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool   { var t ExistsError; return errors.As(e, &t) }
func IsErrInvalid(e error) bool  { var t InvalidError; return errors.As(e, &t) }
func IsErrNotFound(e error) bool { var t NotFoundError; return errors.As(e, &t) }
func IsErrProcess(e error) bool  { var t ProcessError; return errors.As(e, &t) }
func IsErrState(e error) bool    { var t StateError; return errors.As(e, &t) }

// ForCampaign - attach the campaign id to a campaign scoped error
func ForCampaign(err error, campaignID string) error {
	return fmt.Errorf("%w: %s", err, campaignID)
}

// IntentMismatchError - the accepted commitments do not add up to
// the amount the contributor stated
type IntentMismatchError struct {
	Actual uint64
	Stated float64
}

func (e *IntentMismatchError) Error() string {
	return fmt.Sprintf("contribution intent mismatch: committed %d satoshis, stated %v", e.Actual, e.Stated)
}

// RejectedCommitmentsError - every input of a contribution was rejected
type RejectedCommitmentsError struct {
	Errors *multierror.Error
}

func (e *RejectedCommitmentsError) Error() string {
	if nil == e.Errors {
		return "no valid commitments"
	}
	return fmt.Sprintf("no valid commitments: %d rejected: %s", len(e.Errors.Errors), e.Errors.Error())
}

// Unwrap - expose the per-input errors to errors.Is and errors.As
func (e *RejectedCommitmentsError) Unwrap() error {
	if nil == e.Errors {
		return nil
	}
	return e.Errors.ErrorOrNil()
}

// Kind - name of the error class used on the query surface
func Kind(e error) string {
	var mismatch *IntentMismatchError
	var rejected *RejectedCommitmentsError
	switch {
	case nil == e:
		return ""
	case errors.As(e, &mismatch):
		return "ContributionIntentMismatchError"
	case errors.As(e, &rejected):
		return "RejectedCommitmentsError"
	case errors.Is(e, ErrInvalidCampaignData):
		return "InvalidCampaignData"
	case errors.Is(e, ErrCampaignAlreadyExists):
		return "CampaignAlreadyExistsError"
	case errors.Is(e, ErrContributionVerification):
		return "ContributionVerificationError"
	case errors.Is(e, ErrCampaignDoesNotExist):
		return "CampaignDoesNotExistError"
	case errors.Is(e, ErrCampaignFulfilled):
		return "CampaignFulfilledError"
	case errors.Is(e, ErrCampaignExpired):
		return "CampaignExpiredError"
	case errors.Is(e, ErrCampaignNotStarted):
		return "CampaignNotStartedError"
	case errors.Is(e, ErrStorageInconsistency):
		return "StorageInconsistencyError"
	case IsErrExists(e):
		return "ExistsError"
	case IsErrInvalid(e):
		return "InvalidError"
	case IsErrNotFound(e):
		return "NotFoundError"
	case IsErrState(e):
		return "StateError"
	default:
		return "ProcessError"
	}
}
