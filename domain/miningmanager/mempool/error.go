// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"

	"github.com/pkg/errors"
)

// RejectCode tells why the mempool refused a transaction
type RejectCode uint8

// These constants define the various supported reject codes.
const (
	// RejectMalformed is for transactions that can never be valid
	RejectMalformed RejectCode = 0x01

	// RejectInvalid is for a bad signature or a sender that cannot pay
	RejectInvalid RejectCode = 0x10

	// RejectObsolete is for a nonce the sender already used
	RejectObsolete RejectCode = 0x11

	// RejectDuplicate is for a transaction or sender nonce already pooled
	RejectDuplicate RejectCode = 0x12

	RejectInsufficientFee RejectCode = 0x42
	RejectPoolFull        RejectCode = 0x50
)

var rejectCodeStrings = map[RejectCode]string{
	RejectMalformed:       "REJECT_MALFORMED",
	RejectInvalid:         "REJECT_INVALID",
	RejectObsolete:        "REJECT_OBSOLETE",
	RejectDuplicate:       "REJECT_DUPLICATE",
	RejectInsufficientFee: "REJECT_INSUFFICIENTFEE",
	RejectPoolFull:        "REJECT_POOLFULL",
}

// String returns the RejectCode in human-readable form.
func (code RejectCode) String() string {
	if s, ok := rejectCodeStrings[code]; ok {
		return s
	}
	return fmt.Sprintf("Unknown RejectCode (%d)", uint8(code))
}

// RuleError is returned for every transaction the mempool refuses. Any
// other error from ValidateAndInsertTransaction is a failure of the node
// itself.
type RuleError struct {
	RejectCode  RejectCode
	Description string
}

func (e RuleError) Error() string {
	return e.Description
}

func txRuleError(code RejectCode, description string) error {
	return errors.WithStack(RuleError{RejectCode: code, Description: description})
}

// ExtractRejectCode returns the reject code carried by err, if any
func ExtractRejectCode(err error) (RejectCode, bool) {
	var ruleErr RuleError
	if errors.As(err, &ruleErr) {
		return ruleErr.RejectCode, true
	}
	return RejectInvalid, false
}
