package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/nerrad567/driveshare-core/internal/audit"
	"github.com/nerrad567/driveshare-core/internal/auth"
	"github.com/nerrad567/driveshare-core/internal/dataserv"
)

func TestAudit_RecordsDriveActions(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	createDrive(t, env, "tab-1")

	w := env.do(t, http.MethodPost, "/api/v1/drives/tab-1/farm", nil, "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("farm status = %d, want %d", w.Code, http.StatusAccepted)
	}

	res, err := env.audit.List(context.Background(), audit.Filter{Target: "tab-1"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("Total = %d, want 2", res.Total)
	}

	actions := map[string]audit.Entry{}
	for _, e := range res.Entries {
		actions[e.Action] = e
	}
	farm, ok := actions[audit.ActionFarm]
	if !ok {
		t.Fatalf("no %s entry in %+v", audit.ActionFarm, res.Entries)
	}
	if farm.Subject != "anonymous" {
		t.Errorf("Subject = %q, want anonymous", farm.Subject)
	}
	if _, ok := farm.Details["pid"]; !ok {
		t.Errorf("Details = %v, want pid", farm.Details)
	}
	if _, ok := actions[audit.ActionDriveCreate]; !ok {
		t.Errorf("no %s entry in %+v", audit.ActionDriveCreate, res.Entries)
	}
}

func TestAudit_RecordsTokenSubject(t *testing.T) {
	env := newTestEnv(t, envOptions{secret: testSecret})
	token := mintToken(t, auth.RoleOperator)

	w := env.do(t, http.MethodPost, "/api/v1/client/poll", nil, token)
	if w.Code != http.StatusAccepted {
		t.Fatalf("poll status = %d, want %d", w.Code, http.StatusAccepted)
	}

	res, err := env.audit.List(context.Background(), audit.Filter{Action: audit.ActionPoll})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(res.Entries))
	}
	if got := res.Entries[0]; got.Subject != "tester" || got.Target != dataserv.KeyPoll {
		t.Errorf("entry = %+v, want subject tester target %s", got, dataserv.KeyPoll)
	}
}

func TestAudit_FailedRequestsNotRecorded(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	w := env.do(t, http.MethodPost, "/api/v1/drives/missing/farm", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("farm status = %d, want %d", w.Code, http.StatusNotFound)
	}
	w = env.do(t, http.MethodDelete, "/api/v1/processes/missing", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("terminate status = %d, want %d", w.Code, http.StatusNotFound)
	}

	res, err := env.audit.List(context.Background(), audit.Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 0 {
		t.Errorf("Total = %d, want 0: %+v", res.Total, res.Entries)
	}
}

func TestListAudit(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	createDrive(t, env, "tab-1")
	createDrive(t, env, "tab-2")

	w := env.do(t, http.MethodGet, "/api/v1/audit?target=tab-2", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var resp audit.ListResult
	decodeBody(t, w, &resp)
	if resp.Total != 1 || len(resp.Entries) != 1 {
		t.Fatalf("result = %+v, want one entry", resp)
	}
	if resp.Entries[0].Action != audit.ActionDriveCreate {
		t.Errorf("Action = %q, want %q", resp.Entries[0].Action, audit.ActionDriveCreate)
	}

	w = env.do(t, http.MethodGet, "/api/v1/audit?limit=1&offset=1", nil, "")
	decodeBody(t, w, &resp)
	if resp.Total != 2 || len(resp.Entries) != 1 || resp.Offset != 1 {
		t.Errorf("page = %+v, want 1 of 2 at offset 1", resp)
	}
}

func TestListAudit_BadQuery(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	for _, q := range []string{"limit=abc", "offset=-1"} {
		w := env.do(t, http.MethodGet, "/api/v1/audit?"+q, nil, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", q, w.Code, http.StatusBadRequest)
		}
	}
}

func TestListAudit_ViewerForbidden(t *testing.T) {
	env := newTestEnv(t, envOptions{secret: testSecret})

	w := env.do(t, http.MethodGet, "/api/v1/audit", nil, mintToken(t, auth.RoleViewer))
	if w.Code != http.StatusForbidden {
		t.Errorf("viewer status = %d, want %d", w.Code, http.StatusForbidden)
	}
	w = env.do(t, http.MethodGet, "/api/v1/audit", nil, mintToken(t, auth.RoleOperator))
	if w.Code != http.StatusOK {
		t.Errorf("operator status = %d, want %d", w.Code, http.StatusOK)
	}
}
