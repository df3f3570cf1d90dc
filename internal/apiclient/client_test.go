package apiclient_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	api "github.com/mind-engage/plant-eval/internal/api/http"
	"github.com/mind-engage/plant-eval/internal/apiclient"
	auth "github.com/mind-engage/plant-eval/internal/auth/middleware"
	"github.com/mind-engage/plant-eval/internal/db"
	"github.com/mind-engage/plant-eval/internal/evaluation"
	"github.com/mind-engage/plant-eval/internal/navigator"
	"github.com/mind-engage/plant-eval/internal/rbac"
)

func TestStatusMapping(t *testing.T) {
	cases := map[int]error{
		http.StatusUnauthorized:        evaluation.ErrAuth,
		http.StatusForbidden:           evaluation.ErrAccessDenied,
		http.StatusLocked:              evaluation.ErrExamBlocked,
		http.StatusNotFound:            evaluation.ErrNotFound,
		http.StatusInternalServerError: evaluation.ErrNetwork,
		http.StatusBadGateway:          evaluation.ErrNetwork,
	}
	for status, want := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", status)
		}))
		c := apiclient.New(apiclient.Config{BaseURL: srv.URL})
		_, err := c.Template(context.Background(), evaluation.TypePersonal)
		if !errors.Is(err, want) {
			t.Errorf("status %d: expected %v, got %v", status, want, err)
		}
		srv.Close()
	}
}

func TestTransportAndDecodeFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()
	c := apiclient.New(apiclient.Config{BaseURL: srv.URL})
	if _, err := c.BlockStatus(context.Background(), "u1"); !errors.Is(err, evaluation.ErrNetwork) {
		t.Errorf("decode failure: expected ErrNetwork, got %v", err)
	}

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer slow.Close()
	c = apiclient.New(apiclient.Config{BaseURL: slow.URL, Timeout: 20 * time.Millisecond})
	if _, err := c.HasPermission(context.Background(), "u1", evaluation.TypeEquipo); !errors.Is(err, evaluation.ErrNetwork) {
		t.Errorf("timeout: expected ErrNetwork, got %v", err)
	}
}

func TestLoginStoresToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/login" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"token":"tok-1","user":{"id":"u1","username":"ana","nombre_completo":"Ana","rol":"evaluador"}}`))
			return
		}
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"allowed":true}`))
	}))
	defer srv.Close()

	c := apiclient.New(apiclient.Config{BaseURL: srv.URL + "/"})
	u, err := c.Login(context.Background(), "ana", "secreto")
	if err != nil || u.FullName != "Ana" {
		t.Fatalf("login: %+v %v", u, err)
	}
	if _, err := c.HasPermission(context.Background(), "u1", evaluation.TypePersonal); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Errorf("expected bearer token, got %q", gotAuth)
	}
	c.Logout()
	if c.Token() != "" {
		t.Error("expected token cleared")
	}
}

// TestNavigatorAgainstServer drives a whole attempt through the real router.
func TestNavigatorAgainstServer(t *testing.T) {
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name())
	conn, err := db.Open(ctx, db.DriverSQLite, dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	store := evaluation.NewSQLStore(conn, db.DriverSQLite, nil)
	if _, err := store.CreateUser(ctx, evaluation.NewUser{
		ID: "u-ana", Username: "ana", Password: "secreto", FullName: "Ana Pérez", Role: rbac.RoleEvaluator,
	}); err != nil {
		t.Fatal(err)
	}
	qs := func(p string) []evaluation.Question {
		out := make([]evaluation.Question, 5)
		for i := range out {
			out[i] = evaluation.Question{ID: fmt.Sprintf("%s%d", p, i), Prompt: "?"}
		}
		return out
	}
	if err := store.PutTemplate(ctx, evaluation.Evaluation{
		Title: "Evaluación de personal", Type: evaluation.TypePersonal,
		Sections: []evaluation.Section{
			{Name: "A", Weight: 60, Questions: qs("a")},
			{Name: "B", Weight: 40, Questions: qs("b")},
		},
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.SetPermission(ctx, "u-ana", evaluation.TypePersonal, true); err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	api.Mount(r, api.Deps{Store: store, Auth: auth.NewAuthService("test-secret")})
	srv := httptest.NewServer(r)
	defer srv.Close()

	client := apiclient.New(apiclient.Config{BaseURL: srv.URL})
	nav := navigator.New(client, nil, nil)

	if err := nav.Login(ctx, "ana", "mala"); !errors.Is(err, evaluation.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if err := nav.Login(ctx, "ana", "secreto"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := nav.SelectEvaluation(ctx, evaluation.TypeEquipo); !errors.Is(err, evaluation.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if err := nav.SelectEvaluation(ctx, evaluation.TypePersonal); err != nil {
		t.Fatalf("select: %v", err)
	}
	for q := 0; q < 5; q++ {
		if err := nav.Answer(ctx, 0, q, "si"); err != nil {
			t.Fatal(err)
		}
	}
	if err := nav.ContinueFromModal(); err != nil {
		t.Fatal(err)
	}
	for q, v := range []string{"si", "si", "no", "no", "no"} {
		if err := nav.Answer(ctx, 1, q, v); err != nil {
			t.Fatalf("answer %d: %v", q, err)
		}
	}
	if nav.Screen() != navigator.ScreenResults || nav.Session().Result.Score != 76 {
		t.Fatalf("expected results with 76, got %s %+v", nav.Screen(), nav.Session().Result)
	}

	saved, err := store.ListResults(ctx, evaluation.ResultListOpts{UserID: "u-ana"})
	if err != nil || len(saved) != 1 || saved[0].Score != 76 {
		t.Fatalf("expected persisted result, got %+v %v", saved, err)
	}
	if !strings.HasPrefix(saved[0].EvaluationTitle, "Evaluación") {
		t.Errorf("unexpected title %q", saved[0].EvaluationTitle)
	}

	// blocking mid-session shows up at the next selection
	if err := store.SetBlock(ctx, "u-ana", "Revisión", ""); err != nil {
		t.Fatal(err)
	}
	if err := nav.NewEvaluation(); err != nil {
		t.Fatal(err)
	}
	if err := nav.SelectEvaluation(ctx, evaluation.TypePersonal); !errors.Is(err, evaluation.ErrExamBlocked) {
		t.Fatalf("expected ErrExamBlocked, got %v", err)
	}
	if nav.Screen() != navigator.ScreenBlocked {
		t.Fatalf("expected blocked screen, got %s", nav.Screen())
	}

	// the next user must not inherit ana's bearer token
	if client.Token() == "" {
		t.Fatal("expected a token while logged in")
	}
	nav.Logout()
	if client.Token() != "" {
		t.Fatalf("expected token cleared by logout, got %q", client.Token())
	}
}
