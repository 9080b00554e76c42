package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/deppfellow/user-api/internal/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ConvertPgError converts a raw Postgres error into an *Error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// formatUserFriendlyMessage phrases a client facing message from table and
// column metadata.
func formatUserFriendlyMessage(sqlErr *Error) string {
	entityName := getEntityName(sqlErr.TableName, sqlErr.ColumnName)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entityName)
	case UniqueViolation:
		return fmt.Sprintf("A %s with this identifier already exists", entityName)
	case NotNullViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName == "" {
			fieldName = "field"
		}
		return fmt.Sprintf("The %s is required", fieldName)
	case CheckViolation:
		fieldName := humanizeText(columnFromConstraint(sqlErr))
		if fieldName != "" {
			return fmt.Sprintf("The %s value does not meet required conditions", fieldName)
		}
		return "One or more values do not meet required conditions"
	case InvalidTextRepresentation:
		return "One or more values have an invalid format"
	case InvalidRegularExpression:
		return "The search expression is not a valid regular expression"
	case StringDataTooLong:
		return "One or more values are too long"
	case NumericValueOutOfRange:
		return "One or more values are out of range"
	default:
		return "An error occurred while processing your request"
	}
}

// getEntityName infers an entity name, preferring a "<entity>_id" column
// over the singularized table name.
func getEntityName(tableName, columnName string) string {
	if columnName != "" && strings.HasSuffix(strings.ToLower(columnName), "_id") {
		return humanizeText(strings.TrimSuffix(strings.ToLower(columnName), "_id"))
	}

	if tableName != "" {
		entity := tableName
		if strings.HasSuffix(entity, "s") && len(entity) > 1 {
			entity = entity[:len(entity)-1]
		}
		return strings.ToLower(humanizeText(entity))
	}

	return "record"
}

// humanizeText converts snake_case into Title Case.
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// columnFromConstraint returns the column a CHECK constraint guards. Postgres
// leaves ColumnName empty for CHECK violations, so the "<table>_<column>_check"
// naming convention is used as a fallback.
func columnFromConstraint(sqlErr *Error) string {
	if sqlErr.ColumnName != "" {
		return sqlErr.ColumnName
	}
	name := strings.TrimSuffix(sqlErr.ConstraintName, "_check")
	if name == sqlErr.ConstraintName {
		return ""
	}
	if sqlErr.TableName != "" {
		name = strings.TrimPrefix(name, sqlErr.TableName+"_")
	}
	return name
}

// HandleError converts a low-level database error into an *errs.Error.
//
//   - *errs.Error is returned unchanged
//   - Postgres constraint and data errors become 400 validation failures
//   - ErrNoRows becomes a 404
//   - anything else becomes a 500
func HandleError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *errs.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		sqlErr := ConvertPgError(pgerr)
		message := formatUserFriendlyMessage(sqlErr)

		switch sqlErr.Code {
		case NotNullViolation:
			return errs.NewValidationError(message, []errs.FieldError{{
				Field: strings.ToLower(sqlErr.ColumnName),
				Error: "is required",
			}})
		case CheckViolation:
			var fieldErrors []errs.FieldError
			if column := columnFromConstraint(sqlErr); column != "" {
				fieldErrors = []errs.FieldError{{Field: column, Error: "is out of range"}}
			}
			return errs.NewValidationError(message, fieldErrors)
		case ForeignKeyViolation, UniqueViolation, InvalidTextRepresentation,
			InvalidRegularExpression, StringDataTooLong, NumericValueOutOfRange:
			return errs.NewValidationError(message, nil)
		default:
			return errs.NewInternalServerError(err)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return errs.NewNotFoundError("Resource not found")
	}

	return errs.NewInternalServerError(err)
}
