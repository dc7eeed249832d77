//go:build integration

package e2e

import (
	"net/http"
	"strings"
	"testing"

	"github.com/family-health-keeper/backend/internal/messaging"
	"github.com/family-health-keeper/backend/internal/testutil"
)

func TestE2E_DocumentLifecycle(t *testing.T) {
	ts := SetupE2ETest(t)
	defer ts.Cleanup(t)

	client, _ := ts.RegisterAndLogin(t, "docs@example.com")
	patientID := CreatePatient(t, client, "Little Tim")

	content := []byte("%PDF-1.4 blood panel")
	resp := client.Upload(t, "/api/v1/documents/", map[string]string{
		"patient_id":  patientID,
		"category":    "Lab-Result",
		"description": "annual bloods",
	}, "bloods.pdf", content)
	testutil.AssertStatusCode(t, resp, http.StatusCreated)
	var doc struct {
		ID          string `json:"id"`
		FileName    string `json:"file_name"`
		ContentType string `json:"content_type"`
		SizeBytes   int64  `json:"size_bytes"`
		SHA256      string `json:"sha256"`
		Category    string `json:"category"`
	}
	testutil.DecodeJSON(t, resp, &doc)
	if doc.FileName != "bloods.pdf" || doc.Category != "lab-result" || doc.SizeBytes != int64(len(content)) {
		t.Errorf("Unexpected document: %+v", doc)
	}
	if !strings.HasPrefix(doc.ContentType, "application/pdf") || len(doc.SHA256) != 64 {
		t.Errorf("Unexpected content type or hash: %+v", doc)
	}
	ts.MockPublisher.AssertRecordEvent(t, messaging.EventDocumentUploaded, doc.ID)

	resp = client.GET(t, "/api/v1/documents/"+doc.ID+"/download")
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "bloods.pdf") {
		t.Errorf("Unexpected Content-Disposition: %q", cd)
	}
	if body := testutil.ReadBody(t, resp); body != string(content) {
		t.Errorf("Downloaded %q", body)
	}

	other, _ := ts.RegisterAndLogin(t, "other@example.com")
	resp = other.GET(t, "/api/v1/documents/"+doc.ID)
	testutil.AssertStatusCode(t, resp, http.StatusNotFound)
	resp.Body.Close()

	resp = client.DELETE(t, "/api/v1/documents/"+doc.ID)
	testutil.AssertStatusCode(t, resp, http.StatusNoContent)
	resp.Body.Close()
	ts.MockPublisher.AssertRecordEvent(t, messaging.EventDocumentDeleted, doc.ID)

	resp = client.GET(t, "/api/v1/documents/"+doc.ID+"/download")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404 after delete, got %d", resp.StatusCode)
	}
	testutil.AssertDetail(t, resp, "Document not found")
}

func TestE2E_DocumentUpload_Rejections(t *testing.T) {
	ts := SetupE2ETest(t)
	defer ts.Cleanup(t)

	client, _ := ts.RegisterAndLogin(t, "limits@example.com")

	resp := client.Upload(t, "/api/v1/documents/", nil, "empty.txt", nil)
	testutil.AssertStatusCode(t, resp, http.StatusUnprocessableEntity)
	resp.Body.Close()

	big := make([]byte, (1<<20)+1)
	resp = client.Upload(t, "/api/v1/documents/", nil, "big.bin", big)
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("Expected 413, got %d", resp.StatusCode)
	}
	testutil.AssertDetail(t, resp, "File too large")

	resp = client.Upload(t, "/api/v1/documents/", map[string]string{"category": "selfie"}, "a.png", []byte("png"))
	testutil.AssertStatusCode(t, resp, http.StatusUnprocessableEntity)
	resp.Body.Close()

	ts.MockPublisher.AssertEventNotPublished(t, messaging.EventDocumentUploaded)
}
