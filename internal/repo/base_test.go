package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
)

type ctxKey struct{}

func TestBaseDBBindsContext(t *testing.T) {
	conn := dbtest.New(t)
	base := NewBase(conn)

	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	withCtx := base.DB(ctx)
	require.NotNil(t, withCtx.Statement)
	require.Equal(t, ctx, withCtx.Statement.Context)

	require.Same(t, conn, base.DB(nil))
}

func TestBaseWithTx(t *testing.T) {
	conn := dbtest.New(t)
	base := NewBase(conn)
	require.Same(t, conn, base.WithTx(nil).db)

	tx := conn.Begin()
	defer tx.Rollback()
	require.Same(t, tx, base.WithTx(tx).db)
}

func TestTranslate(t *testing.T) {
	require.NoError(t, Translate(nil, "x"))

	err := Translate(gorm.ErrRecordNotFound, "order not found")
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	require.Equal(t, "order not found", pkgerrors.As(err).Message())

	err = Translate(errors.New("connection reset"), "order not found")
	require.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))

	typed := pkgerrors.New(pkgerrors.CodeConflict, "busy")
	require.Same(t, typed, Translate(typed, "x"))
}
