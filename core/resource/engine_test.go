// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package resource

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbeheer/bff/core/expand"
	"github.com/openbeheer/bff/core/fields"
	"github.com/openbeheer/bff/core/oas"
	"github.com/openbeheer/bff/core/registry"
	"github.com/openbeheer/bff/core/upstream"
)

type zaaktype struct {
	URL             string `json:"url"`
	Identificatie   string `json:"identificatie"`
	Omschrijving    string `json:"omschrijving"`
	BeginGeldigheid string `json:"beginGeldigheid"`
	Concept         bool   `json:"concept"`
}

type zaaktypeQuery struct {
	Identificatie string `schema:"identificatie"`
	Status        string `schema:"status"`
	Page          int    `schema:"page"`
}

func zaaktypenBundle() *Bundle {
	return &Bundle{
		Resource:  "zaaktypen",
		Path:      "/zaaktypen",
		Kind:      registry.KindRecordTypes,
		Prototype: zaaktype{},
		NewQuery:  func() any { return &zaaktypeQuery{} },
		PageSize:  10,
	}
}

// newGateway mounts the bundles over a fake upstream and returns the
// gateway router plus the upstream server.
func newGateway(t *testing.T, handler http.Handler, bundles ...*Bundle) (*mux.Router, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	store := registry.NewMemoryStore(registry.Service{
		Slug:     "OZ",
		Label:    "Open Zaak",
		Kind:     registry.KindRecordTypes,
		APIRoot:  srv.URL + "/catalogi/api/v1",
		AuthType: upstream.AuthNone,
	})
	engine := NewEngine(registry.New(store), oas.NewRegistry())
	router := mux.NewRouter().StrictSlash(true)
	engine.MustMount(router.PathPrefix("/api/v1").Subrouter(), bundles...)
	return router, srv
}

func do(router *mux.Router, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func pageBody(count int, next string, results ...string) string {
	n := "null"
	if next != "" {
		n = strconv.Quote(next)
	}
	return fmt.Sprintf(`{"count":%d,"next":%s,"previous":null,"results":[%s]}`,
		count, n, strings.Join(results, ","))
}

func fieldNames(fs []fields.Field) []string {
	names := make([]string, 0, len(fs))
	for _, f := range fs {
		names = append(names, f.Name)
	}
	return names
}

func TestListEnvelope(t *testing.T) {
	var base string
	var gotQuery url.Values
	h := http.NewServeMux()
	h.HandleFunc("/catalogi/api/v1/zaaktypen", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprint(w, pageBody(3, base+"/zaaktypen?page=2",
			`{"url":"`+base+`/zaaktypen/aaa","identificatie":"ZAAK-1","omschrijving":"Aanvraag","beginGeldigheid":"2024-01-01","concept":false}`,
			`{"url":"`+base+`/zaaktypen/bbb","identificatie":"ZAAK-2","omschrijving":"Bezwaar","beginGeldigheid":"2024-02-01","concept":true}`,
		))
	})
	router, srv := newGateway(t, h, zaaktypenBundle())
	base = srv.URL + "/catalogi/api/v1"

	w := do(router, http.MethodGet, "/api/v1/OZ/zaaktypen?identificatie=ZAAK-1", "")
	require.Equal(t, http.StatusOK, w.Code)

	// the page size is pinned by the gateway, not the client
	assert.Equal(t, "1", gotQuery.Get("page"))
	assert.Equal(t, "10", gotQuery.Get("pageSize"))
	assert.Equal(t, "ZAAK-1", gotQuery.Get("identificatie"))

	var envelope ListEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Results, 2)
	assert.Equal(t, 3, envelope.Pagination.Count)
	assert.Equal(t, 1, envelope.Pagination.Page)
	assert.Equal(t, 10, envelope.Pagination.PageSize)

	// pagination links live in the gateway's URL space
	require.NotNil(t, envelope.Pagination.Next)
	assert.Equal(t, "http://example.com/api/v1/OZ/zaaktypen?identificatie=ZAAK-1&page=2", *envelope.Pagination.Next)
	assert.Nil(t, envelope.Pagination.Previous)

	names := fieldNames(envelope.Fields)
	assert.Contains(t, names, "identificatie")
	assert.Contains(t, names, "beginGeldigheid")
	assert.Contains(t, names, "omschrijving")

	// the filtered field carries its lookup and current value
	for _, f := range envelope.Fields {
		if f.Name == "identificatie" {
			assert.Equal(t, "identificatie", f.FilterLookup)
			assert.Equal(t, "ZAAK-1", f.FilterValue)
		}
	}
}

func TestListInvalidPage(t *testing.T) {
	router, _ := newGateway(t, http.NewServeMux(), zaaktypenBundle())

	w := do(router, http.MethodGet, "/api/v1/OZ/zaaktypen?page=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"invalid"`)
}

func TestListUnknownServiceIsNotFound(t *testing.T) {
	router, _ := newGateway(t, http.NewServeMux(), zaaktypenBundle())

	w := do(router, http.MethodGet, "/api/v1/nope/zaaktypen", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"not_found"`)
}

func TestListExpansionsAreMemoizedPerRequest(t *testing.T) {
	var base string
	var statustypeHits int32
	h := http.NewServeMux()
	h.HandleFunc("/catalogi/api/v1/zaaktypen", func(w http.ResponseWriter, r *http.Request) {
		// both items reference the same statustype
		fmt.Fprint(w, pageBody(2, "",
			`{"url":"`+base+`/zaaktypen/aaa","statustypen":["`+base+`/statustypen/s1"]}`,
			`{"url":"`+base+`/zaaktypen/bbb","statustypen":["`+base+`/statustypen/s1"]}`,
		))
	})
	h.HandleFunc("/catalogi/api/v1/statustypen/s1", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&statustypeHits, 1)
		fmt.Fprint(w, `{"url":"`+base+`/statustypen/s1","omschrijving":"Ontvangen"}`)
	})

	b := zaaktypenBundle()
	b.ListExpansions = map[string]expand.Spec{
		"statustypen": {Resolve: expand.URLList("statustypen")},
	}
	router, srv := newGateway(t, h, b)
	base = srv.URL + "/catalogi/api/v1"

	w := do(router, http.MethodGet, "/api/v1/OZ/zaaktypen", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&statustypeHits))

	var envelope ListEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Results, 2)
	for _, item := range envelope.Results {
		expanded, ok := item["_expand"].(map[string]any)
		require.True(t, ok)
		statustypen, ok := expanded["statustypen"].([]any)
		require.True(t, ok)
		require.Len(t, statustypen, 1)
		first, ok := statustypen[0].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Ontvangen", first["omschrijving"])
	}
}

func TestDetailEnvelope(t *testing.T) {
	var base string
	h := http.NewServeMux()
	h.HandleFunc("/catalogi/api/v1/zaaktypen/aaa", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"url":"`+base+`/zaaktypen/aaa","identificatie":"ZAAK-1","omschrijving":"Aanvraag","beginGeldigheid":"2024-01-01","concept":true}`)
	})

	b := zaaktypenBundle()
	b.Fieldsets = []fields.Fieldset{
		{Label: "Algemeen", Fields: []string{"identificatie", "omschrijving"}},
	}
	router, srv := newGateway(t, h, b)
	base = srv.URL + "/catalogi/api/v1"

	w := do(router, http.MethodGet, "/api/v1/OZ/zaaktypen/aaa", "")
	require.Equal(t, http.StatusOK, w.Code)

	var envelope DetailEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "ZAAK-1", envelope.Result["identificatie"])
	assert.Contains(t, fieldNames(envelope.Fields), "omschrijving")
	require.Len(t, envelope.Fieldsets, 1)
	assert.Equal(t, "Algemeen", envelope.Fieldsets[0].Label)

	// without a version resolver the item reports itself, uuid from url
	require.Len(t, envelope.Versions, 1)
	assert.Equal(t, "aaa", envelope.Versions[0].UUID)
	assert.Equal(t, "2024-01-01", envelope.Versions[0].BeginGeldigheid)
	require.NotNil(t, envelope.Versions[0].Concept)
	assert.True(t, *envelope.Versions[0].Concept)
}

func TestDetailVersionsByIdentificatie(t *testing.T) {
	var base string
	var versionQuery url.Values
	h := http.NewServeMux()
	h.HandleFunc("/catalogi/api/v1/zaaktypen/aaa", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"url":"`+base+`/zaaktypen/aaa","identificatie":"ZAAK-1","beginGeldigheid":"2024-06-01"}`)
	})
	h.HandleFunc("/catalogi/api/v1/zaaktypen", func(w http.ResponseWriter, r *http.Request) {
		versionQuery = r.URL.Query()
		fmt.Fprint(w, pageBody(2, "",
			`{"url":"`+base+`/zaaktypen/aaa","beginGeldigheid":"2024-06-01"}`,
			`{"url":"`+base+`/zaaktypen/old","beginGeldigheid":"2023-01-01","eindeGeldigheid":"2024-05-31"}`,
		))
	})

	b := zaaktypenBundle()
	b.Versions = VersionsByIdentificatie("/zaaktypen")
	router, srv := newGateway(t, h, b)
	base = srv.URL + "/catalogi/api/v1"

	w := do(router, http.MethodGet, "/api/v1/OZ/zaaktypen/aaa", "")
	require.Equal(t, http.StatusOK, w.Code)

	// drafts are only visible with status=alles
	assert.Equal(t, "alles", versionQuery.Get("status"))
	assert.Equal(t, "ZAAK-1", versionQuery.Get("identificatie"))

	var envelope DetailEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Versions, 2)
	assert.Equal(t, "aaa", envelope.Versions[0].UUID)
	assert.Equal(t, "old", envelope.Versions[1].UUID)
	require.NotNil(t, envelope.Versions[1].EindeGeldigheid)
	assert.Equal(t, "2024-05-31", *envelope.Versions[1].EindeGeldigheid)
}

func TestVersionLookupFailureDegradesToSingleVersion(t *testing.T) {
	var base string
	h := http.NewServeMux()
	h.HandleFunc("/catalogi/api/v1/zaaktypen/aaa", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"url":"`+base+`/zaaktypen/aaa","identificatie":"ZAAK-1","beginGeldigheid":"2024-06-01"}`)
	})
	h.HandleFunc("/catalogi/api/v1/zaaktypen", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"server_error","title":"boom","status":500}`, http.StatusInternalServerError)
	})

	b := zaaktypenBundle()
	b.Versions = VersionsByIdentificatie("/zaaktypen")
	router, srv := newGateway(t, h, b)
	base = srv.URL + "/catalogi/api/v1"

	w := do(router, http.MethodGet, "/api/v1/OZ/zaaktypen/aaa", "")
	require.Equal(t, http.StatusOK, w.Code)

	var envelope DetailEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Versions, 1)
	assert.Equal(t, "aaa", envelope.Versions[0].UUID)
}

func TestCreateRenamesBodyKeys(t *testing.T) {
	var gotBody map[string]any
	h := http.NewServeMux()
	h.HandleFunc("/catalogi/api/v1/zaaktypen", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"url":"http://x/zaaktypen/new","identificatie":"ZAAK-9"}`)
	})

	b := zaaktypenBundle()
	b.RenameBody = true
	router, _ := newGateway(t, h, b)

	w := do(router, http.MethodPost, "/api/v1/OZ/zaaktypen",
		`{"identificatie":"ZAAK-9","begin_geldigheid":"2024-01-01"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "2024-01-01", gotBody["beginGeldigheid"])
	assert.NotContains(t, gotBody, "begin_geldigheid")
	assert.Contains(t, w.Body.String(), "ZAAK-9")
}

func TestTrailingSlashWritesReachTheUpstream(t *testing.T) {
	var upstreamHits int
	h := http.NewServeMux()
	h.HandleFunc("/catalogi/api/v1/zaaktypen", func(w http.ResponseWriter, r *http.Request) {
		upstreamHits++
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"url":"http://x/zaaktypen/new","identificatie":"ZAAK-9"}`)
	})
	h.HandleFunc("/catalogi/api/v1/zaaktypen/aaa", func(w http.ResponseWriter, r *http.Request) {
		upstreamHits++
		fmt.Fprint(w, `{"url":"http://x/zaaktypen/aaa","omschrijving":"x"}`)
	})
	router, _ := newGateway(t, h, zaaktypenBundle())

	// a redirect would resurface the write as a GET and drop the body
	w := do(router, http.MethodPost, "/api/v1/OZ/zaaktypen/", `{"omschrijving":"x"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(router, http.MethodPut, "/api/v1/OZ/zaaktypen/aaa/", `{"omschrijving":"x"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodDelete, "/api/v1/OZ/zaaktypen/aaa/", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, 3, upstreamHits)
}

func TestCreateRejectsMalformedBody(t *testing.T) {
	router, _ := newGateway(t, http.NewServeMux(), zaaktypenBundle())

	w := do(router, http.MethodPost, "/api/v1/OZ/zaaktypen", `{"identificatie":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"invalid"`)
}

func TestNestedBundleScopesToParent(t *testing.T) {
	var base string
	var listQuery url.Values
	var createBody map[string]any
	h := http.NewServeMux()
	h.HandleFunc("/catalogi/api/v1/statustypen", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&createBody))
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"url":"`+base+`/statustypen/s9"}`)
			return
		}
		listQuery = r.URL.Query()
		fmt.Fprint(w, pageBody(0, ""))
	})

	b := &Bundle{
		Resource: "statustypen",
		Path:     "/statustypen",
		Kind:     registry.KindRecordTypes,
		Sub:      "zaaktype",
		SubPath:  "/zaaktypen",
	}
	router, srv := newGateway(t, h, b)
	base = srv.URL + "/catalogi/api/v1"

	w := do(router, http.MethodGet, "/api/v1/OZ/aaa/statustypen", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, base+"/zaaktypen/aaa", listQuery.Get("zaaktype"))

	w = do(router, http.MethodPost, "/api/v1/OZ/aaa/statustypen", `{"omschrijving":"Ontvangen"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, base+"/zaaktypen/aaa", createBody["zaaktype"])
}

func TestUpstreamValidationErrorPassesThrough(t *testing.T) {
	h := http.NewServeMux()
	h.HandleFunc("/catalogi/api/v1/zaaktypen", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code":"invalid","title":"Invalid input.","status":400,"invalidParams":[{"name":"beginGeldigheid","code":"required","reason":"Dit veld is vereist."}]}`)
	})
	router, _ := newGateway(t, h, zaaktypenBundle())

	w := do(router, http.MethodPost, "/api/v1/OZ/zaaktypen", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"invalid"`)
	assert.Contains(t, w.Body.String(), "beginGeldigheid")
	assert.Contains(t, w.Body.String(), "Dit veld is vereist.")
}

func TestUpstreamDownIsBadGateway(t *testing.T) {
	router, srv := newGateway(t, http.NewServeMux(), zaaktypenBundle())
	srv.Close()

	w := do(router, http.MethodGet, "/api/v1/OZ/zaaktypen", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"connection_error"`)
}

func TestDelete(t *testing.T) {
	var deleted string
	h := http.NewServeMux()
	h.HandleFunc("/catalogi/api/v1/zaaktypen/aaa", func(w http.ResponseWriter, r *http.Request) {
		deleted = r.Method
		w.WriteHeader(http.StatusNoContent)
	})
	router, _ := newGateway(t, h, zaaktypenBundle())

	w := do(router, http.MethodDelete, "/api/v1/OZ/zaaktypen/aaa", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, http.MethodDelete, deleted)
}

func TestPublishAction(t *testing.T) {
	var published bool
	h := http.NewServeMux()
	h.HandleFunc("/catalogi/api/v1/zaaktypen/aaa/publish", func(w http.ResponseWriter, r *http.Request) {
		published = r.Method == http.MethodPost
		fmt.Fprint(w, `{"url":"http://x/zaaktypen/aaa","concept":false}`)
	})

	b := zaaktypenBundle()
	b.Actions = []string{"publish"}
	router, _ := newGateway(t, h, b)

	w := do(router, http.MethodPost, "/api/v1/OZ/zaaktypen/aaa/publish", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, published)
}

func TestUpdateForwardsMethod(t *testing.T) {
	var gotMethod string
	h := http.NewServeMux()
	h.HandleFunc("/catalogi/api/v1/zaaktypen/aaa", func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		fmt.Fprint(w, `{"url":"http://x/zaaktypen/aaa","omschrijving":"Bijgewerkt"}`)
	})
	router, _ := newGateway(t, h, zaaktypenBundle())

	w := do(router, http.MethodPatch, "/api/v1/OZ/zaaktypen/aaa", `{"omschrijving":"Bijgewerkt"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Contains(t, w.Body.String(), "Bijgewerkt")

	w = do(router, http.MethodPut, "/api/v1/OZ/zaaktypen/aaa", `{"omschrijving":"Bijgewerkt"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.MethodPut, gotMethod)
}
