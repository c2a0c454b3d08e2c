package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"photobook/internal/database"
)

func TestListBooksEmpty(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	rec := httptest.NewRecorder()
	env.h.ListBooks(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("Body = %q, want empty JSON array", got)
	}
}

func TestListBooksCounts(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	err := env.db.UpsertBooks(ctx, []database.Book{
		{ID: "2024-04-ben", Child: "Ben", Month: 4, StartDate: "2024-04-01", EndDate: "2024-04-30"},
		{ID: "2024-03-ana", Child: "Ana", Month: 3, StartDate: "2024-03-01", EndDate: "2024-03-31"},
	})
	if err != nil {
		t.Fatalf("UpsertBooks failed: %v", err)
	}

	inRange := seedPhoto(t, env, "a.jpg", "2024-03-05T10:00:00")
	seedPhoto(t, env, "b.jpg", "2024-03-20T11:00:00")
	seedPhoto(t, env, "c.jpg", "2024-04-02T12:00:00")

	if _, err := env.db.UpsertSelections(ctx, "2024-03-ana", []int64{inRange}, true); err != nil {
		t.Fatalf("UpsertSelections failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	rec := httptest.NewRecorder()
	env.h.ListBooks(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}

	var books []database.BookSummary
	decodeBody(t, rec, &books)

	if len(books) != 2 {
		t.Fatalf("Got %d books, want 2", len(books))
	}
	// Ordered by child, then month.
	if books[0].ID != "2024-03-ana" || books[1].ID != "2024-04-ben" {
		t.Errorf("Book order = [%s %s], want [2024-03-ana 2024-04-ben]", books[0].ID, books[1].ID)
	}
	if books[0].PhotoCount != 2 || books[0].SelectedCount != 1 {
		t.Errorf("Ana book counts = (%d, %d), want (2, 1)", books[0].PhotoCount, books[0].SelectedCount)
	}
	if books[1].PhotoCount != 1 || books[1].SelectedCount != 0 {
		t.Errorf("Ben book counts = (%d, %d), want (1, 0)", books[1].PhotoCount, books[1].SelectedCount)
	}
}

func TestGetBookNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/book/nope", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "nope"})
	rec := httptest.NewRecorder()
	env.h.GetBook(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Status = %d, want 404", rec.Code)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["error"] != "Book not found" {
		t.Errorf("Error = %q, want %q", body["error"], "Book not found")
	}
}

func TestGetBookPage(t *testing.T) {
	env := newTestEnv(t, nil)
	seedBook(t, env.db)

	first := seedPhoto(t, env, "a.jpg", "2024-03-05T10:30:45")
	seedPhoto(t, env, "b.jpg", "2024-03-20T09:00:00")
	seedPhoto(t, env, "out.jpg", "2024-05-01T08:00:00")

	req := httptest.NewRequest(http.MethodGet, "/api/book/2024-03-ana", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "2024-03-ana"})
	rec := httptest.NewRecorder()
	env.h.GetBook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	// Book fields are flattened alongside the page fields.
	var body map[string]interface{}
	decodeBody(t, rec, &body)

	if body["id"] != "2024-03-ana" {
		t.Errorf("id = %v, want 2024-03-ana", body["id"])
	}
	if body["child"] != "Ana" {
		t.Errorf("child = %v, want Ana", body["child"])
	}
	if body["completed"] != false {
		t.Errorf("completed = %v, want false", body["completed"])
	}
	if got := body["total_photos"]; got != float64(2) {
		t.Errorf("total_photos = %v, want 2", got)
	}
	if got := body["has_more"]; got != false {
		t.Errorf("has_more = %v, want false", got)
	}

	photos, ok := body["photos"].([]interface{})
	if !ok {
		t.Fatalf("photos missing or not an array: %v", body["photos"])
	}
	if len(photos) != 2 {
		t.Fatalf("Got %d photos, want 2 (out-of-range photo must be excluded)", len(photos))
	}

	entry, ok := photos[0].(map[string]interface{})
	if !ok {
		t.Fatalf("Photo entry is not an object: %v", photos[0])
	}
	if entry["id"] != float64(first) {
		t.Errorf("First photo id = %v, want %d", entry["id"], first)
	}
	if entry["date_taken"] != "2024-03-05" {
		t.Errorf("date_taken = %v, want truncated date 2024-03-05", entry["date_taken"])
	}
}

func TestGetBookPagePaging(t *testing.T) {
	env := newTestEnv(t, nil)
	seedBook(t, env.db)

	seedPhoto(t, env, "a.jpg", "2024-03-01T10:00:00")
	seedPhoto(t, env, "b.jpg", "2024-03-02T10:00:00")
	seedPhoto(t, env, "c.jpg", "2024-03-03T10:00:00")

	req := httptest.NewRequest(http.MethodGet, "/api/book/2024-03-ana?offset=1&limit=1", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "2024-03-ana"})
	rec := httptest.NewRecorder()
	env.h.GetBook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}

	var page bookPageResponse
	decodeBody(t, rec, &page)

	if len(page.Photos) != 1 {
		t.Fatalf("Got %d photos, want 1", len(page.Photos))
	}
	if page.Offset != 1 || page.Limit != 1 {
		t.Errorf("Paging echoed (%d, %d), want (1, 1)", page.Offset, page.Limit)
	}
	if page.TotalPhotos != 3 {
		t.Errorf("TotalPhotos = %d, want 3", page.TotalPhotos)
	}
	if !page.HasMore {
		t.Error("HasMore = false with one page remaining")
	}
	if page.Photos[0].DateTaken != "2024-03-02" {
		t.Errorf("Middle photo date = %q, want 2024-03-02", page.Photos[0].DateTaken)
	}
}

func TestGetBookPageSelectedOnly(t *testing.T) {
	env := newTestEnv(t, nil)
	book := seedBook(t, env.db)
	ctx := context.Background()

	chosen := seedPhoto(t, env, "a.jpg", "2024-03-05T10:00:00")
	seedPhoto(t, env, "b.jpg", "2024-03-06T10:00:00")

	if _, err := env.db.UpsertSelections(ctx, book.ID, []int64{chosen}, true); err != nil {
		t.Fatalf("UpsertSelections failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/book/2024-03-ana?selected_only=true", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "2024-03-ana"})
	rec := httptest.NewRecorder()
	env.h.GetBook(rec, req)

	var page bookPageResponse
	decodeBody(t, rec, &page)

	if page.TotalPhotos != 1 {
		t.Errorf("TotalPhotos = %d, want 1 (selection-filtered)", page.TotalPhotos)
	}
	if len(page.Photos) != 1 || page.Photos[0].ID != chosen {
		t.Fatalf("Photos = %+v, want only the selected photo %d", page.Photos, chosen)
	}
	if !page.Photos[0].Selected {
		t.Error("Selected flag = false on a selected photo")
	}
}

func TestUpdateSelectionAppliesAndScopes(t *testing.T) {
	env := newTestEnv(t, nil)
	book := seedBook(t, env.db)

	inA := seedPhoto(t, env, "a.jpg", "2024-03-05T10:00:00")
	inB := seedPhoto(t, env, "b.jpg", "2024-03-06T10:00:00")
	out := seedPhoto(t, env, "out.jpg", "2024-06-01T10:00:00")

	body := fmt.Sprintf(`{"ids": [%d, %d, %d, 99999], "selected": true}`, inA, inB, out)
	req := httptest.NewRequest(http.MethodPut, "/api/book/2024-03-ana/selection", strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"id": "2024-03-ana"})
	rec := httptest.NewRecorder()
	env.h.UpdateSelection(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	decodeBody(t, rec, &resp)
	if resp["ok"] != true {
		t.Errorf("ok = %v, want true", resp["ok"])
	}
	if resp["updated"] != float64(2) {
		t.Errorf("updated = %v, want 2 (out-of-range and unknown ids ignored)", resp["updated"])
	}

	selected, err := env.db.SelectedPhotoIDs(context.Background(), book.ID)
	if err != nil {
		t.Fatalf("SelectedPhotoIDs failed: %v", err)
	}
	if len(selected) != 2 || selected[0] != inA || selected[1] != inB {
		t.Errorf("Selected ids = %v, want [%d %d]", selected, inA, inB)
	}
}

func TestUpdateSelectionDeselect(t *testing.T) {
	env := newTestEnv(t, nil)
	book := seedBook(t, env.db)
	ctx := context.Background()

	idA := seedPhoto(t, env, "a.jpg", "2024-03-05T10:00:00")
	idB := seedPhoto(t, env, "b.jpg", "2024-03-06T10:00:00")
	if _, err := env.db.UpsertSelections(ctx, book.ID, []int64{idA, idB}, true); err != nil {
		t.Fatalf("UpsertSelections failed: %v", err)
	}

	body := fmt.Sprintf(`{"ids": [%d], "selected": false}`, idA)
	req := httptest.NewRequest(http.MethodPut, "/api/book/2024-03-ana/selection", strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"id": "2024-03-ana"})
	rec := httptest.NewRecorder()
	env.h.UpdateSelection(rec, req)

	var resp map[string]interface{}
	decodeBody(t, rec, &resp)
	if resp["updated"] != float64(1) {
		t.Errorf("updated = %v, want 1", resp["updated"])
	}

	selected, err := env.db.SelectedPhotoIDs(ctx, book.ID)
	if err != nil {
		t.Fatalf("SelectedPhotoIDs failed: %v", err)
	}
	if len(selected) != 1 || selected[0] != idB {
		t.Errorf("Selected ids = %v, want [%d]", selected, idB)
	}
}

func TestUpdateSelectionDefaultsToSelected(t *testing.T) {
	env := newTestEnv(t, nil)
	book := seedBook(t, env.db)

	id := seedPhoto(t, env, "a.jpg", "2024-03-05T10:00:00")

	body := fmt.Sprintf(`{"ids": [%d]}`, id)
	req := httptest.NewRequest(http.MethodPut, "/api/book/2024-03-ana/selection", strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"id": "2024-03-ana"})
	rec := httptest.NewRecorder()
	env.h.UpdateSelection(rec, req)

	selected, err := env.db.SelectedPhotoIDs(context.Background(), book.ID)
	if err != nil {
		t.Fatalf("SelectedPhotoIDs failed: %v", err)
	}
	if len(selected) != 1 || selected[0] != id {
		t.Errorf("Selected ids = %v, want [%d] (selected defaults to true)", selected, id)
	}
}

func TestUpdateSelectionCoercesIDs(t *testing.T) {
	env := newTestEnv(t, nil)
	book := seedBook(t, env.db)

	id := seedPhoto(t, env, "a.jpg", "2024-03-05T10:00:00")

	// String ids, duplicates, and junk entries arrive from loose clients.
	body := fmt.Sprintf(`{"ids": ["%d", %d, "abc", true, null]}`, id, id)
	req := httptest.NewRequest(http.MethodPut, "/api/book/2024-03-ana/selection", strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"id": "2024-03-ana"})
	rec := httptest.NewRecorder()
	env.h.UpdateSelection(rec, req)

	var resp map[string]interface{}
	decodeBody(t, rec, &resp)
	if resp["updated"] != float64(1) {
		t.Errorf("updated = %v, want 1 (dedup and junk dropped)", resp["updated"])
	}

	selected, err := env.db.SelectedPhotoIDs(context.Background(), book.ID)
	if err != nil {
		t.Fatalf("SelectedPhotoIDs failed: %v", err)
	}
	if len(selected) != 1 || selected[0] != id {
		t.Errorf("Selected ids = %v, want [%d]", selected, id)
	}
}

func TestUpdateSelectionMalformedBody(t *testing.T) {
	env := newTestEnv(t, nil)
	book := seedBook(t, env.db)

	req := httptest.NewRequest(http.MethodPut, "/api/book/2024-03-ana/selection", strings.NewReader("not json at all"))
	req = mux.SetURLVars(req, map[string]string{"id": "2024-03-ana"})
	rec := httptest.NewRecorder()
	env.h.UpdateSelection(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200 (malformed payload collapses to a no-op)", rec.Code)
	}

	var resp map[string]interface{}
	decodeBody(t, rec, &resp)
	if resp["updated"] != float64(0) {
		t.Errorf("updated = %v, want 0", resp["updated"])
	}

	selected, err := env.db.SelectedPhotoIDs(context.Background(), book.ID)
	if err != nil {
		t.Fatalf("SelectedPhotoIDs failed: %v", err)
	}
	if len(selected) != 0 {
		t.Errorf("Selections created from malformed body: %v", selected)
	}
}

func TestUpdateSelectionUnknownBook(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/book/nope/selection", strings.NewReader(`{"ids": []}`))
	req = mux.SetURLVars(req, map[string]string{"id": "nope"})
	rec := httptest.NewRecorder()
	env.h.UpdateSelection(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404 even for an empty id list", rec.Code)
	}
}

func TestClearSelection(t *testing.T) {
	env := newTestEnv(t, nil)
	book := seedBook(t, env.db)
	ctx := context.Background()

	id := seedPhoto(t, env, "a.jpg", "2024-03-05T10:00:00")
	if _, err := env.db.UpsertSelections(ctx, book.ID, []int64{id}, true); err != nil {
		t.Fatalf("UpsertSelections failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/book/2024-03-ana/selection", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "2024-03-ana"})
	rec := httptest.NewRecorder()
	env.h.ClearSelection(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}

	var resp map[string]bool
	decodeBody(t, rec, &resp)
	if !resp["ok"] {
		t.Errorf("ok = %v, want true", resp["ok"])
	}

	selected, err := env.db.SelectedPhotoIDs(ctx, book.ID)
	if err != nil {
		t.Fatalf("SelectedPhotoIDs failed: %v", err)
	}
	if len(selected) != 0 {
		t.Errorf("Selections remain after clear: %v", selected)
	}
}

func TestClearSelectionUnknownBook(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/book/nope/selection", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "nope"})
	rec := httptest.NewRecorder()
	env.h.ClearSelection(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", rec.Code)
	}
}

func TestSetCompletion(t *testing.T) {
	env := newTestEnv(t, nil)
	seedBook(t, env.db)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodPatch, "/api/book/2024-03-ana/completion", strings.NewReader(`{"completed": true}`))
	req = mux.SetURLVars(req, map[string]string{"id": "2024-03-ana"})
	rec := httptest.NewRecorder()
	env.h.SetCompletion(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}

	var resp map[string]interface{}
	decodeBody(t, rec, &resp)
	if resp["ok"] != true || resp["completed"] != true {
		t.Errorf("Response = %v, want ok=true completed=true", resp)
	}

	book, err := env.db.GetBook(ctx, "2024-03-ana")
	if err != nil {
		t.Fatalf("GetBook failed: %v", err)
	}
	if !book.Completed {
		t.Error("Completion flag not persisted")
	}

	// A missing completed field clears the flag.
	req = httptest.NewRequest(http.MethodPatch, "/api/book/2024-03-ana/completion", strings.NewReader(`{}`))
	req = mux.SetURLVars(req, map[string]string{"id": "2024-03-ana"})
	rec = httptest.NewRecorder()
	env.h.SetCompletion(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	book, err = env.db.GetBook(ctx, "2024-03-ana")
	if err != nil {
		t.Fatalf("GetBook failed: %v", err)
	}
	if book.Completed {
		t.Error("Completion flag not cleared by empty payload")
	}
}

func TestSetCompletionRejectsNonBool(t *testing.T) {
	env := newTestEnv(t, nil)
	seedBook(t, env.db)

	req := httptest.NewRequest(http.MethodPatch, "/api/book/2024-03-ana/completion", strings.NewReader(`{"completed": "yes"}`))
	req = mux.SetURLVars(req, map[string]string{"id": "2024-03-ana"})
	rec := httptest.NewRecorder()
	env.h.SetCompletion(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", rec.Code)
	}
}

func TestSetCompletionUnknownBook(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/book/nope/completion", strings.NewReader(`{"completed": true}`))
	req = mux.SetURLVars(req, map[string]string{"id": "nope"})
	rec := httptest.NewRecorder()
	env.h.SetCompletion(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", rec.Code)
	}
}
