package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/geocoder89/inkpost/internal/actorctx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_AddsAccountAndMasksSecrets(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	ctx := actorctx.WithAccountID(context.Background(), "acc-42")
	log.InfoContext(ctx, "login", "password", "hunter22", "user", "sam")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))

	assert.Equal(t, "acc-42", rec["account_id"])
	assert.Equal(t, "***", rec["password"])
	assert.Equal(t, "sam", rec["user"])
}

func TestLogger_DebugOnlyInDev(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "prod").Debug("hidden")
	assert.Zero(t, buf.Len())

	newLogger(&buf, "dev").Debug("shown")
	assert.NotZero(t, buf.Len())
}

func TestClassifyDBErr(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, "timeout"},
		{fmt.Errorf("query: %w", context.Canceled), "canceled"},
		{fmt.Errorf("get: %w", pgx.ErrNoRows), "not_found"},
		{&pgconn.PgError{Code: "23505"}, "unique_violation"},
		{&pgconn.PgError{Code: "22P02"}, "pg_class_22"},
		{errors.New("something odd"), "unknown"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyDBErr(tc.err), "err=%v", tc.err)
	}
}

func TestObserveDB_NilPromRunsFn(t *testing.T) {
	var p *Prom
	called := false
	err := p.ObserveDB("op", func() error { called = true; return nil })
	assert.NoError(t, err)
	assert.True(t, called)
}
