package changelist

import (
	"fmt"
	"strings"

	"github.com/jenkinsci/incrementals-tools/errors"
	"github.com/jenkinsci/incrementals-tools/git"
)

// DirtyCheckoutError reports a checkout that differs from its HEAD commit.
type DirtyCheckoutError struct {
	Paths []string
}

func (e *DirtyCheckoutError) Error() string {
	return fmt.Sprintf("make sure `git status -s` is empty before computing a changelist: [%s] (set %s to make this nonfatal)",
		strings.Join(e.Paths, ", "), PropIgnoreDirt)
}

// ErrorCode implements errors.Coder.
func (e *DirtyCheckoutError) ErrorCode() errors.ErrorCode {
	return errors.CodeDirtyCheckout
}

// ClashError reports two commits that would be given the same identifier.
type ClashError struct {
	Commit *git.Commit
	Other  *git.Commit
	Count  int
	Abbrev string
}

func (e *ClashError) Error() string {
	return fmt.Sprintf("%s clashes with %s as they would both be identified as %s",
		e.Commit, e.Other, e.Identifier())
}

// Identifier returns the identifier both commits would receive.
func (e *ClashError) Identifier() string {
	return fmt.Sprintf("%d.%s", e.Count, e.Abbrev)
}

// ErrorCode implements errors.Coder.
func (e *ClashError) ErrorCode() errors.ErrorCode {
	return errors.CodeClash
}
