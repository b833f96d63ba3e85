package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"brandforge/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(config.Airtable{
		APIKey:  "key-test",
		BaseID:  "appBase",
		BaseURL: server.URL,
	})
	return client, server
}

func TestListRecords_FilterAndProjection(t *testing.T) {
	var gotFormula string
	var gotFields []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/appBase/products" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer key-test" {
			t.Errorf("Authorization = %q", auth)
		}
		gotFormula = r.URL.Query().Get("filterByFormula")
		gotFields = r.URL.Query()["fields[]"]
		_ = json.NewEncoder(w).Encode(listResponse{Records: []Record{
			{ID: "recXYZ", Fields: map[string]any{"uuid": "u1"}},
		}})
	})

	records, err := client.ListRecords(context.Background(), "products", EqualsFormula("uuid", "u1"), []string{"uuid"})
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "recXYZ" {
		t.Errorf("records = %v", records)
	}
	if gotFormula != "{uuid} = 'u1'" {
		t.Errorf("filterByFormula = %q", gotFormula)
	}
	if len(gotFields) != 1 || gotFields[0] != "uuid" {
		t.Errorf("fields = %v", gotFields)
	}
}

func TestListRecords_FollowsPagination(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			if r.URL.Query().Get("offset") != "" {
				t.Error("first page should carry no offset")
			}
			_ = json.NewEncoder(w).Encode(listResponse{
				Records: []Record{{ID: "rec1"}},
				Offset:  "page2",
			})
			return
		}
		if r.URL.Query().Get("offset") != "page2" {
			t.Errorf("offset = %q, want page2", r.URL.Query().Get("offset"))
		}
		_ = json.NewEncoder(w).Encode(listResponse{Records: []Record{{ID: "rec2"}}})
	})

	records, err := client.ListRecords(context.Background(), "products", "", nil)
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("len(records) = %d, want 2", len(records))
	}
}

func TestCreateRecords_RejectsOversizedBatch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be issued for an oversized batch")
	})

	oversized := make([]Record, MaxBatchSize+1)
	if _, err := client.CreateRecords(context.Background(), "products", oversized); err != ErrBatchTooLarge {
		t.Errorf("err = %v, want ErrBatchTooLarge", err)
	}
}

func TestDo_RateLimitIsTyped(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.ListRecords(context.Background(), "products", "", nil)
	if err != ErrRateLimited {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestChunk(t *testing.T) {
	records := make([]Record, 23)
	chunks := Chunk(records)
	if len(chunks) != 3 {
		t.Fatalf("len(chunks) = %d, want 3", len(chunks))
	}
	if len(chunks[0]) != 10 || len(chunks[1]) != 10 || len(chunks[2]) != 3 {
		t.Errorf("chunk sizes = %d/%d/%d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
	if Chunk(nil) != nil {
		t.Error("Chunk(nil) should be nil")
	}
}

func TestFormulas(t *testing.T) {
	if got := EqualsFormula("uuid", "it's"); got != `{uuid} = 'it\'s'` {
		t.Errorf("EqualsFormula = %q", got)
	}
	if got := OrEqualsFormula("uuid", []string{"a", "b"}); got != "OR({uuid} = 'a', {uuid} = 'b')" {
		t.Errorf("OrEqualsFormula = %q", got)
	}
	if got := OrEqualsFormula("uuid", []string{"a"}); got != "{uuid} = 'a'" {
		t.Errorf("single-value OrEqualsFormula = %q", got)
	}
	if got := RecordIDFormula([]string{"rec1", "rec2"}); got != "OR(RECORD_ID() = 'rec1', RECORD_ID() = 'rec2')" {
		t.Errorf("RecordIDFormula = %q", got)
	}
}

func TestDeleteRecords(t *testing.T) {
	var gotMethod string
	var gotIDs []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotIDs = r.URL.Query()["records[]"]
		fmt.Fprint(w, `{"records": [{"id": "rec1", "deleted": true}, {"id": "rec2", "deleted": true}]}`)
	})

	if err := client.DeleteRecords(context.Background(), "products", []string{"rec1", "rec2"}); err != nil {
		t.Fatalf("DeleteRecords failed: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %s, want DELETE", gotMethod)
	}
	if len(gotIDs) != 2 || gotIDs[0] != "rec1" || gotIDs[1] != "rec2" {
		t.Errorf("records[] = %v, want [rec1 rec2]", gotIDs)
	}
}

func TestDeleteRecords_RejectsOversizedBatch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an oversized batch")
	})

	ids := make([]string, MaxBatchSize+1)
	if err := client.DeleteRecords(context.Background(), "products", ids); err != ErrBatchTooLarge {
		t.Errorf("err = %v, want ErrBatchTooLarge", err)
	}
}
