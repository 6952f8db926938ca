package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func setupStore(t *testing.T) string {
	t.Helper()
	t.Setenv("STORAGE_PATH", t.TempDir())
	t.Setenv("STAGING_PATH", t.TempDir())
	t.Setenv("STATIC_OWNER_ID", "owner-1")
	t.Setenv("RETRY_DELAY", "0")
	t.Setenv("INDEX_MODE", "off")
	t.Setenv("TIMERS_ENABLED", "false")
	t.Setenv("ANALYZER_PROVIDER", "none")

	image := filepath.Join(t.TempDir(), "look.jpg")
	if err := os.WriteFile(image, []byte("\xff\xd8\xff\xe0jpeg"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return image
}

func TestUploadThenListOutfitsAsJSON(t *testing.T) {
	image := setupStore(t)

	out, err := runCLI(t, "upload", "outfit", "--image", image, "--details", "white tee, jeans",
		"--rating", "8", "--genre", "streetwear", "--date", "2024-05-01", "-o", "json")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	var uploaded struct {
		RecordID  string `json:"recordId"`
		Namespace string `json:"namespace"`
	}
	if err := json.Unmarshal([]byte(out), &uploaded); err != nil {
		t.Fatalf("decode upload output %q: %v", out, err)
	}
	if uploaded.RecordID == "" || uploaded.Namespace != "outfits" {
		t.Fatalf("unexpected upload result: %+v", uploaded)
	}

	out, err = runCLI(t, "list", "outfits", "-o", "json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var outfits []struct {
		ID      string `json:"id"`
		OwnerID string `json:"ownerId"`
		Details string `json:"details"`
		Rating  int    `json:"rating"`
		Genre   string `json:"genre"`
	}
	if err := json.Unmarshal([]byte(out), &outfits); err != nil {
		t.Fatalf("decode list output %q: %v", out, err)
	}
	if len(outfits) != 1 {
		t.Fatalf("expected one outfit, got %d", len(outfits))
	}
	got := outfits[0]
	if got.ID != uploaded.RecordID || got.OwnerID != "owner-1" || got.Rating != 8 || got.Genre != "Streetwear" {
		t.Fatalf("unexpected outfit: %+v", got)
	}
}

func TestListOwnerOverrideSeesOnlyOwnRecords(t *testing.T) {
	image := setupStore(t)

	if _, err := runCLI(t, "upload", "wishlist", "--image", image, "--name", "boots"); err != nil {
		t.Fatalf("upload: %v", err)
	}

	out, err := runCLI(t, "list", "wishlist", "--owner", "someone-else", "-o", "json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("expected empty listing for another owner, got %q", out)
	}

	out, err = runCLI(t, "list", "wishlist")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "boots") {
		t.Fatalf("expected boots in text listing, got %q", out)
	}
}

func TestUploadRejectsUnknownGenre(t *testing.T) {
	image := setupStore(t)

	if _, err := runCLI(t, "upload", "outfit", "--image", image, "--genre", "Grunge"); err == nil {
		t.Fatal("expected error for unknown genre")
	}
}

func TestListRejectsUnknownNamespace(t *testing.T) {
	setupStore(t)

	if _, err := runCLI(t, "list", "shoes"); err == nil {
		t.Fatal("expected error for unknown namespace")
	}
}

func TestScoreOutputsYAML(t *testing.T) {
	out, err := runCLI(t, "score", "-o", "yaml",
		`{top: white tee, bottom: blue jeans}`,
		`{"top": "white tee", "bottom": "blue jeans"}`)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if strings.TrimSpace(out) != "score: 100" {
		t.Fatalf("unexpected score output %q", out)
	}
}

func TestScoreReadsAnalysisFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.yaml")
	if err := os.WriteFile(path, []byte("shoes: red sneakers\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := runCLI(t, "score", `{top: black hoodie}`, "@"+path)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if strings.TrimSpace(out) != "0.0" {
		t.Fatalf("expected zero score for disjoint fields, got %q", out)
	}
}

func TestScoreRejectsEmptyAnalysis(t *testing.T) {
	if _, err := runCLI(t, "score", "{}", "{top: tee}"); err == nil {
		t.Fatal("expected error for empty analysis")
	}
}

func TestRejectsUnknownOutputFormat(t *testing.T) {
	if _, err := runCLI(t, "score", "-o", "xml", "{top: a}", "{top: a}"); err == nil {
		t.Fatal("expected error for unknown output format")
	}
}

func TestTimerStartForUploadedWishlistItem(t *testing.T) {
	image := setupStore(t)

	out, err := runCLI(t, "upload", "wishlist", "--image", image, "--name", "boots", "-o", "json")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	var uploaded struct {
		RecordID string `json:"recordId"`
	}
	if err := json.Unmarshal([]byte(out), &uploaded); err != nil {
		t.Fatalf("decode upload output %q: %v", out, err)
	}

	out, err = runCLI(t, "timer", "start", uploaded.RecordID, "-o", "json")
	if err != nil {
		t.Fatalf("timer start: %v", err)
	}
	var status struct {
		ItemID      string `json:"itemId"`
		RemainingMS int64  `json:"remainingMs"`
		Expired     bool   `json:"expired"`
	}
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode timer output %q: %v", out, err)
	}
	if status.ItemID != uploaded.RecordID || status.Expired || status.RemainingMS <= 0 {
		t.Fatalf("unexpected timer status: %+v", status)
	}

	if _, err := runCLI(t, "timer", "start", "missing-item"); err == nil {
		t.Fatal("expected error for unknown wishlist item")
	}
}
