package main

import (
	"errors"
	"net/http"
	"testing"

	"github.com/robotomize/ratewatch/internal/config"
	"github.com/robotomize/ratewatch/provider"
)

func TestFiatSource(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		names    []string
		fallback bool
		err      error
	}{
		{name: "test_single_xe", names: []string{"xe"}},
		{name: "test_single_rcb", names: []string{"rcb"}},
		{name: "test_single_cae", names: []string{"cae"}},
		{name: "test_chain", names: []string{"xe", "ecb", "rcb", "cae"}, fallback: true},
		{name: "test_unknown", names: []string{"xe", "bloomberg"}, err: config.ErrUnknownProvider},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			source, err := fiatSource(http.DefaultClient, tc.names)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("expected %v, got %v", tc.err, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("fiatSource: %v", err)
			}

			if _, ok := source.(*provider.FallbackSource); ok != tc.fallback {
				t.Errorf("fallback chain built: %v, want %v", ok, tc.fallback)
			}
		})
	}
}
