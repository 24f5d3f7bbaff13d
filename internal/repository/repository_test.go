package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/avilchesf/gestor-gastos/internal/model"
)

// testSchema mirrors the MySQL migrations in sqlite form. Production
// queries stick to portable SQL, so the repositories run unchanged here.
const testSchema = `
CREATE TABLE users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    email         TEXT NOT NULL UNIQUE,
    name          TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE managers (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL,
    description TEXT,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE memberships (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id    INTEGER NOT NULL,
    manager_id INTEGER NOT NULL,
    role       TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (user_id, manager_id)
);
CREATE TABLE months (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    manager_id INTEGER NOT NULL,
    start_date DATETIME NOT NULL,
    close_date DATETIME,
    closed     INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE incomes (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    month_id    INTEGER NOT NULL,
    amount      REAL NOT NULL,
    description TEXT NOT NULL,
    entry_date  DATETIME NOT NULL,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE expenses (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    month_id    INTEGER NOT NULL,
    amount      REAL NOT NULL,
    description TEXT NOT NULL,
    category    TEXT,
    entry_date  DATETIME NOT NULL,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// single connection: each sqlite in-memory connection is its own DB
	db.SetMaxOpenConns(1)
	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createUser(t *testing.T, db *sql.DB, email string) uint64 {
	t.Helper()
	id, err := NewUserRepo(db).Create(context.Background(), email, "Test User", "secret1", bcrypt.MinCost)
	require.NoError(t, err)
	return id
}

func createManager(t *testing.T, db *sql.DB, creatorID uint64) *model.Manager {
	t.Helper()
	m := &model.Manager{Name: "Household"}
	require.NoError(t, NewManagerRepo(db).Create(context.Background(), m, creatorID))
	return m
}

func createMonth(t *testing.T, db *sql.DB, managerID uint64, start time.Time) *model.Month {
	t.Helper()
	m := &model.Month{ManagerID: managerID, StartDate: start}
	require.NoError(t, NewMonthRepo(db).Create(context.Background(), m))
	return m
}

func TestUserRepoCreateAndDuplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	users := NewUserRepo(db)

	id, err := users.Create(ctx, "Ana@Example.com", "Ana", "secret1", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotZero(t, id)

	// duplicate registration, different casing
	_, err = users.Create(ctx, "ana@example.com", "Ana Again", "secret2", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrUserExists)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	assert.Equal(t, 1, count, "no duplicate row may exist")

	u, err := users.GetByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "ana@example.com", u.Email, "email stored normalized")
}

func TestManagerCreateAssignsAdmin(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	userID := createUser(t, db, "ana@example.com")

	m := createManager(t, db, userID)
	require.NotZero(t, m.ID)

	members, err := NewManagerRepo(db).Members(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, userID, members[0].UserID)
	assert.Equal(t, model.RoleAdmin, members[0].Role)
}

func TestManagerJoinRules(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	managers := NewManagerRepo(db)

	ana := createUser(t, db, "ana@example.com")
	bob := createUser(t, db, "bob@example.com")
	m := createManager(t, db, ana)

	assert.ErrorIs(t, managers.Join(ctx, bob, 9999), ErrManagerNotFound)

	require.NoError(t, managers.Join(ctx, bob, m.ID))
	members, err := managers.Members(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, model.RoleMember, members[1].Role, "joiner is never admin")

	assert.ErrorIs(t, managers.Join(ctx, bob, m.ID), ErrAlreadyMember)
	assert.ErrorIs(t, managers.Join(ctx, ana, m.ID), ErrAlreadyMember,
		"creator already holds a membership")
}

func TestAccessResolvers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	access := NewAccessRepo(db)

	ana := createUser(t, db, "ana@example.com")
	bob := createUser(t, db, "bob@example.com")
	m := createManager(t, db, ana)
	month := createMonth(t, db, m.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	income := &model.Income{MonthID: month.ID, Amount: 1000, Description: "salary", Date: time.Now().UTC()}
	require.NoError(t, NewIncomeRepo(db).Create(ctx, income))
	expense := &model.Expense{MonthID: month.ID, Amount: 50, Description: "rent", Date: time.Now().UTC()}
	require.NoError(t, NewExpenseRepo(db).Create(ctx, expense))

	t.Run("manager", func(t *testing.T) {
		a, err := access.ResolveManager(ctx, ana, m.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RoleAdmin, a.Role)

		_, err = access.ResolveManager(ctx, bob, m.ID)
		assert.ErrorIs(t, err, ErrNotMember)

		_, err = access.ResolveManager(ctx, ana, 9999)
		assert.ErrorIs(t, err, ErrManagerNotFound)
	})

	t.Run("month", func(t *testing.T) {
		a, err := access.ResolveMonth(ctx, ana, month.ID)
		require.NoError(t, err)
		assert.Equal(t, m.ID, a.ManagerID)
		assert.False(t, a.Closed)

		_, err = access.ResolveMonth(ctx, bob, month.ID)
		assert.ErrorIs(t, err, ErrNotMember)

		_, err = access.ResolveMonth(ctx, ana, 9999)
		assert.ErrorIs(t, err, ErrMonthNotFound)
	})

	t.Run("income chain", func(t *testing.T) {
		a, err := access.ResolveIncome(ctx, ana, income.ID)
		require.NoError(t, err)
		assert.Equal(t, month.ID, a.MonthID)
		assert.Equal(t, m.ID, a.ManagerID)

		_, err = access.ResolveIncome(ctx, bob, income.ID)
		assert.ErrorIs(t, err, ErrNotMember)

		_, err = access.ResolveIncome(ctx, ana, 9999)
		assert.ErrorIs(t, err, ErrEntryNotFound)
	})

	t.Run("expense chain", func(t *testing.T) {
		a, err := access.ResolveExpense(ctx, ana, expense.ID)
		require.NoError(t, err)
		assert.Equal(t, month.ID, a.MonthID)

		_, err = access.ResolveExpense(ctx, bob, expense.ID)
		assert.ErrorIs(t, err, ErrNotMember)

		_, err = access.ResolveExpense(ctx, ana, 9999)
		assert.ErrorIs(t, err, ErrEntryNotFound)
	})

	t.Run("closed flag travels the chain", func(t *testing.T) {
		require.NoError(t, NewMonthRepo(db).Close(ctx, month.ID, time.Now().UTC()))

		a, err := access.ResolveIncome(ctx, ana, income.ID)
		require.NoError(t, err)
		assert.True(t, a.Closed)
	})
}

func TestMonthCloseIsMonotonic(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	months := NewMonthRepo(db)

	ana := createUser(t, db, "ana@example.com")
	m := createManager(t, db, ana)
	month := createMonth(t, db, m.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	closeDate := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, months.Close(ctx, month.ID, closeDate))

	got, err := months.GetByID(ctx, month.ID)
	require.NoError(t, err)
	assert.True(t, got.Closed)
	require.NotNil(t, got.CloseDate)
	assert.True(t, closeDate.Equal(got.CloseDate.UTC()))

	assert.ErrorIs(t, months.Close(ctx, month.ID, closeDate), ErrMonthClosed)
	assert.ErrorIs(t, months.Close(ctx, 9999, closeDate), ErrMonthNotFound)
	assert.ErrorIs(t, months.UpdateStartDate(ctx, month.ID, time.Now().UTC()), ErrMonthClosed)
}

func TestClosedMonthRejectsEntryMutations(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	incomes := NewIncomeRepo(db)
	expenses := NewExpenseRepo(db)

	ana := createUser(t, db, "ana@example.com")
	m := createManager(t, db, ana)
	month := createMonth(t, db, m.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	income := &model.Income{MonthID: month.ID, Amount: 1000, Description: "salary", Date: time.Now().UTC()}
	require.NoError(t, incomes.Create(ctx, income))
	expense := &model.Expense{MonthID: month.ID, Amount: 50, Description: "rent", Date: time.Now().UTC()}
	require.NoError(t, expenses.Create(ctx, expense))

	require.NoError(t, NewMonthRepo(db).Close(ctx, month.ID, time.Now().UTC()))

	err := incomes.Create(ctx, &model.Income{MonthID: month.ID, Amount: 1, Description: "late", Date: time.Now().UTC()})
	assert.ErrorIs(t, err, ErrMonthClosed)

	err = expenses.Create(ctx, &model.Expense{MonthID: month.ID, Amount: 1, Description: "late", Date: time.Now().UTC()})
	assert.ErrorIs(t, err, ErrMonthClosed)

	income.Amount = 2000
	assert.ErrorIs(t, incomes.Update(ctx, income), ErrMonthClosed)
	assert.ErrorIs(t, incomes.Delete(ctx, income.ID), ErrMonthClosed)

	expense.Amount = 60
	assert.ErrorIs(t, expenses.Update(ctx, expense), ErrMonthClosed)
	assert.ErrorIs(t, expenses.Delete(ctx, expense.ID), ErrMonthClosed)

	// nothing was written or removed
	var incomeCount, expenseCount int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM incomes").Scan(&incomeCount))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM expenses").Scan(&expenseCount))
	assert.Equal(t, 1, incomeCount)
	assert.Equal(t, 1, expenseCount)
}

func TestEntryCreateAgainstMissingMonth(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := NewIncomeRepo(db).Create(ctx, &model.Income{MonthID: 9999, Amount: 1, Description: "x", Date: time.Now().UTC()})
	assert.ErrorIs(t, err, ErrMonthNotFound)
}

func TestEntryUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	expenses := NewExpenseRepo(db)

	ana := createUser(t, db, "ana@example.com")
	m := createManager(t, db, ana)
	month := createMonth(t, db, m.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	cat := "food"
	e := &model.Expense{MonthID: month.ID, Amount: 12.5, Description: "groceries", Category: &cat, Date: time.Now().UTC()}
	require.NoError(t, expenses.Create(ctx, e))

	e.Amount = 15
	e.Category = nil
	require.NoError(t, expenses.Update(ctx, e))

	got, err := expenses.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 15.0, got.Amount)
	assert.Nil(t, got.Category)

	// value-identical update is a no-op, not a gate failure
	require.NoError(t, expenses.Update(ctx, got))

	require.NoError(t, expenses.Delete(ctx, e.ID))
	_, err = expenses.GetByID(ctx, e.ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	assert.ErrorIs(t, expenses.Delete(ctx, e.ID), ErrEntryNotFound)
}

// commitFailDriver wraps the sqlite driver so that every transaction commit
// rolls back and reports errCommitFailed instead. Plain statements outside a
// transaction pass through untouched.
type commitFailDriver struct{ driver.Driver }

type commitFailConn struct{ driver.Conn }

type commitFailTx struct{ driver.Tx }

var errCommitFailed = errors.New("commit failed")

func (d commitFailDriver) Open(name string) (driver.Conn, error) {
	c, err := d.Driver.Open(name)
	if err != nil {
		return nil, err
	}
	return commitFailConn{c}, nil
}

func (c commitFailConn) Begin() (driver.Tx, error) {
	tx, err := c.Conn.Begin()
	if err != nil {
		return nil, err
	}
	return commitFailTx{tx}, nil
}

func (t commitFailTx) Commit() error {
	_ = t.Tx.Rollback()
	return errCommitFailed
}

var registerCommitFail sync.Once

func newCommitFailDB(t *testing.T) *sql.DB {
	t.Helper()
	registerCommitFail.Do(func() {
		base, err := sql.Open("sqlite", ":memory:")
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		d := base.Driver()
		_ = base.Close()
		sql.Register("sqlite-commitfail", commitFailDriver{d})
	})
	db, err := sql.Open("sqlite-commitfail", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestManagerCreateReportsCommitFailure(t *testing.T) {
	db := newCommitFailDB(t)
	ctx := context.Background()
	userID := createUser(t, db, "ana@example.com")

	err := NewManagerRepo(db).Create(ctx, &model.Manager{Name: "Casa"}, userID)
	require.ErrorIs(t, err, errCommitFailed)

	// nothing from the failed transaction may be visible
	var managers, memberships int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM managers").Scan(&managers))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM memberships").Scan(&memberships))
	assert.Equal(t, 0, managers)
	assert.Equal(t, 0, memberships)
}

func TestMonthListNestedAndOrdered(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	months := NewMonthRepo(db)

	ana := createUser(t, db, "ana@example.com")
	m := createManager(t, db, ana)

	older := createMonth(t, db, m.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := createMonth(t, db, m.ID, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, NewIncomeRepo(db).Create(ctx,
		&model.Income{MonthID: older.ID, Amount: 100, Description: "pay", Date: time.Now().UTC()}))

	list, err := months.ListByManager(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID, "newest start date first")
	assert.Equal(t, older.ID, list[1].ID)
	assert.Len(t, list[1].Incomes, 1)
	assert.NotNil(t, list[0].Incomes, "entry slices marshal as [] not null")
	assert.NotNil(t, list[0].Expenses)
}
