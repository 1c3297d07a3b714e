package probe_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/drblury/apienvelope/probe"
)

type fakeMongo struct {
	err  error
	pref *readpref.ReadPref
}

func (f *fakeMongo) Ping(_ context.Context, rp *readpref.ReadPref) error {
	f.pref = rp
	return f.err
}

func TestNewPingProbe(t *testing.T) {
	if err := probe.NewPingProbe("cache", nil)(context.Background()); err == nil {
		t.Fatal("expected error for a missing ping function")
	}

	cold := errors.New("cold")
	err := probe.NewPingProbe("cache", func(context.Context) error { return cold })(nil)
	if !errors.Is(err, cold) || err.Error() != "cache probe failed: cold" {
		t.Fatalf("expected named wrapped error, got %v", err)
	}
}

func TestNewMongoPingProbe(t *testing.T) {
	if err := probe.NewMongoPingProbe(nil, nil)(context.Background()); err == nil {
		t.Fatal("expected error for a nil client")
	}

	primary := &fakeMongo{}
	if err := probe.NewMongoPingProbe(primary, nil)(context.Background()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if primary.pref.Mode() != readpref.PrimaryMode {
		t.Fatalf("expected primary read preference, got %v", primary.pref.Mode())
	}

	down := &fakeMongo{err: errors.New("no reachable servers")}
	err := probe.NewMongoPingProbe(down, readpref.Nearest())(context.Background())
	if !errors.Is(err, down.err) || down.pref.Mode() != readpref.NearestMode {
		t.Fatalf("expected wrapped error with nearest preference, got %v", err)
	}
}

func ExampleNewEnvelopeProbe() {
	billing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"status":"server_error","code":503,"message":"maintenance window","data":{}}`)
	}))
	defer billing.Close()

	check := probe.NewEnvelopeProbe("billing", billing.URL, probe.WithHTTPClient(billing.Client()))
	fmt.Println(check(context.Background()))
	// Output: billing probe: unexpected envelope status server_error: maintenance window
}

func ExampleNewHTTPProbe() {
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "demo" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"status":"client_error","code":401,"message":"missing api key","data":{}}`)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer search.Close()

	anonymous := probe.NewHTTPProbe("search", http.MethodGet, search.URL)
	fmt.Println(anonymous(context.Background()))

	keyed := probe.NewHTTPProbe("search", http.MethodGet, search.URL,
		probe.WithHTTPHeader("X-Api-Key", "demo"),
		probe.WithHTTPAllowedStatuses(http.StatusAccepted),
	)
	fmt.Println(keyed(context.Background()))
	// Output:
	// search probe: unexpected status 401 Unauthorized: missing api key
	// <nil>
}

func ExampleWithHTTPReplyValidator() {
	ledger := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","code":200,"message":null,"data":{"lag":12}}`)
	}))
	defer ledger.Close()

	check := probe.NewEnvelopeProbe("ledger", ledger.URL,
		probe.WithHTTPReplyValidator(func(reply probe.Reply) error {
			data, _ := reply.Envelope.Data.(map[string]any)
			if fmt.Sprint(data["lag"]) != "0" {
				return fmt.Errorf("replication lag %v", data["lag"])
			}
			return nil
		}),
	)
	fmt.Println(check(context.Background()))
	// Output: ledger probe: replication lag 12
}
