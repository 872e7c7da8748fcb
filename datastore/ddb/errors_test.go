/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	stderrors "errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/suparena/docrepo/errors"
	"github.com/suparena/docrepo/storagemodels"
)

func responseError(status int, header http.Header) error {
	return &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status, Header: header}},
			Err:      stderrors.New("service error"),
		},
		RequestID: "req-1",
	}
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		throttled  bool
		status     int
		retryAfter time.Duration
	}{
		{"ProvisionedThroughput", &types.ProvisionedThroughputExceededException{}, true, 429, 0},
		{"RequestLimit", &types.RequestLimitExceeded{}, true, 429, 0},
		{"ThrottlingCode", &smithy.GenericAPIError{Code: "ThrottlingException"}, true, 429, 0},
		{"Unavailable", responseError(503, http.Header{"Retry-After": {"3"}}), true, 503, 3 * time.Second},
		{"TooManyRequests", responseError(429, nil), true, 429, 0},
		{"InternalServerError", &types.InternalServerError{}, false, 0, 0},
		{"BadRequest", responseError(400, nil), false, 0, 0},
		{"ConditionFailed", &types.ConditionalCheckFailedException{}, false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateError(tt.err)
			var te *errors.ThrottledError
			isThrottled := stderrors.As(err, &te)
			if isThrottled != tt.throttled {
				t.Fatalf("throttled = %v, want %v (%v)", isThrottled, tt.throttled, err)
			}
			if !tt.throttled {
				if err != tt.err {
					t.Errorf("non-throttling errors should pass through unchanged")
				}
				return
			}
			if te.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", te.StatusCode, tt.status)
			}
			if te.RetryAfter != tt.retryAfter {
				t.Errorf("retry after = %v, want %v", te.RetryAfter, tt.retryAfter)
			}
			if !stderrors.Is(err, tt.err) {
				t.Error("cause should be preserved")
			}
		})
	}
}

func TestRetryAfterHTTPDate(t *testing.T) {
	at := time.Now().Add(10 * time.Second).UTC().Format(http.TimeFormat)
	d := retryAfter(responseError(503, http.Header{"Retry-After": {at}}))
	if d <= 0 || d > 10*time.Second {
		t.Errorf("unexpected retry after %v", d)
	}
	if d := retryAfter(responseError(503, http.Header{"Retry-After": {"soon"}})); d != 0 {
		t.Errorf("unparseable header should yield 0, got %v", d)
	}
}

func TestRequestOptions(t *testing.T) {
	if fns := requestOptions(); fns != nil {
		t.Errorf("Expected no options without a throttle tolerance, got %d", len(fns))
	}

	var o sdk.Options
	for _, fn := range requestOptions(storagemodels.WithThrottleRetry(0, 0)) {
		fn(&o)
	}
	if _, ok := o.Retryer.(aws.NopRetryer); !ok {
		t.Errorf("Expected NopRetryer, got %T", o.Retryer)
	}

	o = sdk.Options{}
	for _, fn := range requestOptions(storagemodels.WithThrottleRetry(30*time.Second, 9)) {
		fn(&o)
	}
	if o.Retryer == nil || o.Retryer.MaxAttempts() != 10 {
		t.Errorf("Expected a retryer with 10 attempts, got %v", o.Retryer)
	}
}
