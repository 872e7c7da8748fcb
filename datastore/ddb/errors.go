/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/storagemodels"
)

var throttlingCodes = map[string]bool{
	"ProvisionedThroughputExceededException": true,
	"RequestLimitExceeded":                   true,
	"ThrottlingException":                    true,
	"Throttling":                             true,
	"TooManyRequestsException":               true,
}

// translateError converts DynamoDB throttling into an errors.ThrottledError.
// Other errors are returned unchanged.
func translateError(err error) error {
	status, ok := throttleStatus(err)
	if !ok {
		return err
	}
	return errors.NewThrottledError(status, retryAfter(err), err)
}

// throttleStatus reports whether err is a throttling response and the HTTP
// status it maps to.
func throttleStatus(err error) (int, bool) {
	var ptee *types.ProvisionedThroughputExceededException
	if stderrors.As(err, &ptee) {
		return http.StatusTooManyRequests, true
	}
	var rle *types.RequestLimitExceeded
	if stderrors.As(err, &rle) {
		return http.StatusTooManyRequests, true
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) && throttlingCodes[apiErr.ErrorCode()] {
		return http.StatusTooManyRequests, true
	}

	var re *awshttp.ResponseError
	if stderrors.As(err, &re) {
		switch re.HTTPStatusCode() {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			return re.HTTPStatusCode(), true
		}
	}
	return 0, false
}

// retryAfter reads the Retry-After header of the failed response, in seconds
// or as an HTTP date. It is zero when absent.
func retryAfter(err error) time.Duration {
	var re *awshttp.ResponseError
	if !stderrors.As(err, &re) || re.Response == nil || re.Response.Response == nil {
		return 0
	}
	v := re.Response.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// requestOptions maps the per-request throttle tolerance onto the SDK retryer.
// Zero attempts disables SDK retries so throttling reaches the caller at once.
func requestOptions(opts ...storagemodels.RequestOption) []func(*sdk.Options) {
	ro := storagemodels.ApplyRequestOptions(opts...)
	if !ro.ThrottleRetrySet {
		return nil
	}

	if ro.MaxRetryAttempts <= 0 {
		return []func(*sdk.Options){func(o *sdk.Options) {
			o.Retryer = aws.NopRetryer{}
		}}
	}

	return []func(*sdk.Options){func(o *sdk.Options) {
		o.Retryer = retry.NewStandard(func(so *retry.StandardOptions) {
			so.MaxAttempts = ro.MaxRetryAttempts + 1
			if ro.MaxRetryWait > 0 {
				so.MaxBackoff = ro.MaxRetryWait
			}
		})
	}}
}
