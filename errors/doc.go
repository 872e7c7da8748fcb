/*
Package errors provides semantic error types for the docrepo library.

The package defines common failure scenarios with specific types that can be
checked using the standard errors.Is() function or the provided helper functions.

Common Errors:

	var (
	    ErrNotFound       = errors.New("document not found")
	    ErrAlreadyExists  = errors.New("document already exists")
	    ErrThrottled      = errors.New("request throttled")
	    ErrRetryExhausted = errors.New("retry budget exhausted")
	    ErrBulkImport     = errors.New("bulk import failed")
	    ErrLookup         = errors.New("lookup did not match exactly one document")
	)

Classification:

Stores report failures with these types and the repository's backoff loop
switches on the Kind returned by Classify:

	switch kind, wait := errors.Classify(err); kind {
	case errors.KindThrottled:
	    // sleep wait, retry without consuming budget
	case errors.KindTransient:
	    // count the attempt, retry after a fixed interval
	case errors.KindFatal:
	    // give up
	}

Usage:

	member, err := repo.GetSingle(ctx, docrepo.Query[*Member]{Filter: `Email == "a@b.c"`})
	if err != nil {
	    if errors.IsLookupError(err) {
	        // zero or several matches
	    }
	    return err
	}

The error types implement the error interface and support wrapping,
making them compatible with Go's standard error handling patterns.
*/
package errors
