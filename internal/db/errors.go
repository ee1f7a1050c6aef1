package db

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"contract-rbac/internal/apperr"
)

// MapError classifies a driver error. Uniqueness and reference violations become
// Conflict and malformed input becomes InvalidArgument. Transport failures and
// server-side interruptions are Unavailable; any other server error is Internal.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return apperr.Unavailablef(op, err)
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return &apperr.Error{Kind: apperr.Conflict, Op: op, Msg: "already exists (" + pgErr.ConstraintName + ")", Err: err}
	case pgerrcode.ForeignKeyViolation:
		return &apperr.Error{Kind: apperr.Conflict, Op: op, Msg: "still referenced (" + pgErr.ConstraintName + ")", Err: err}
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation, pgerrcode.InvalidTextRepresentation:
		return &apperr.Error{Kind: apperr.InvalidArgument, Op: op, Err: err}
	}
	if pgerrcode.IsConnectionException(pgErr.Code) || pgerrcode.IsOperatorIntervention(pgErr.Code) ||
		pgerrcode.IsInsufficientResources(pgErr.Code) || pgerrcode.IsTransactionRollback(pgErr.Code) {
		return apperr.Unavailablef(op, err)
	}
	return apperr.Wrap(apperr.Internal, op, err)
}
