package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ErrorDump is a log-friendly rendering of an error chain, including
// driver level details from Postgres or Mongo when present.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`

	MongoCode    int    `json:"mongo_code,omitempty"`
	MongoName    string `json:"mongo_name,omitempty"`
	MongoMessage string `json:"mongo_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGDetail = pgxErr.Detail
		d.PGMessage = pgxErr.Message
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGDetail = pqErr.Detail
		d.PGMessage = pqErr.Message
		return d
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		d.MongoCode = int(cmdErr.Code)
		d.MongoName = cmdErr.Name
		d.MongoMessage = cmdErr.Message
		return d
	}

	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) && len(writeErr.WriteErrors) > 0 {
		d.MongoCode = writeErr.WriteErrors[0].Code
		d.MongoMessage = writeErr.WriteErrors[0].Message
	}

	return d
}
