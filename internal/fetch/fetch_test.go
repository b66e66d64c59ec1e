// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/deepresearch/pkg/types"
)

func TestFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "deepresearch-test/0.1" {
			t.Errorf("User-Agent = %q", got)
		}
		fmt.Fprint(w, "page body")
	}))
	defer ts.Close()

	f := New(types.HTTPConfig{UserAgent: "deepresearch-test/0.1"})
	body, err := f.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if body != "page body" {
		t.Errorf("body = %q", body)
	}
}

func TestFetchTruncatesLargeBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", maxBodyBytes+1000))
	}))
	defer ts.Close()

	f := New(types.HTTPConfig{})
	body, err := f.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(body) != maxBodyBytes {
		t.Errorf("len(body) = %d, want %d", len(body), maxBodyBytes)
	}
}

func TestFetchNon200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	f := New(types.HTTPConfig{})
	if _, err := f.Fetch(context.Background(), ts.URL); err == nil {
		t.Fatal("expected error on 404")
	}
}

func TestEnrichFillsOnlyEmptyContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "fetched")
	}))
	defer ts.Close()

	sources := []types.Source{
		{URL: ts.URL, Content: ""},
		{URL: ts.URL, Content: "already there"},
		{URL: "", Content: ""},
	}

	f := New(types.HTTPConfig{})
	f.Enrich(context.Background(), sources)

	if sources[0].Content != "fetched" {
		t.Errorf("sources[0].Content = %q, want fetched", sources[0].Content)
	}
	if sources[1].Content != "already there" {
		t.Errorf("sources[1].Content = %q, should be untouched", sources[1].Content)
	}
	if sources[2].Content != "" {
		t.Errorf("sources[2].Content = %q, should stay empty", sources[2].Content)
	}
}

func TestEnrichAbsorbsErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	sources := []types.Source{{URL: ts.URL}}
	f := New(types.HTTPConfig{})
	f.Enrich(context.Background(), sources)

	if sources[0].Content != "" {
		t.Errorf("Content = %q, want empty after failed fetch", sources[0].Content)
	}
}
