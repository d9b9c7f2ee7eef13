package querier

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestConstraintViolations(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "employees_employee_code_key"})
	name, ok := UniqueViolation(unique)
	if !ok || name != "employees_employee_code_key" {
		t.Fatalf("expected unique violation, got %q %v", name, ok)
	}
	if _, ok := ForeignKeyViolation(unique); ok {
		t.Fatal("unique violation must not match foreign key code")
	}

	fk := &pgconn.PgError{Code: "23503", ConstraintName: "employees_department_id_fkey"}
	if name, ok := ForeignKeyViolation(fk); !ok || name != "employees_department_id_fkey" {
		t.Fatalf("expected fk violation, got %q %v", name, ok)
	}
	if _, ok := CheckViolation(errors.New("plain")); ok {
		t.Fatal("plain error must not match")
	}
}
