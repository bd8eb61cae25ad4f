package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/sablin/fairmarket/internal/domain/errors"
	"github.com/sablin/fairmarket/internal/domain/model"
	"github.com/sablin/fairmarket/internal/domain/repository"
)

// DBPool is the subset of pgxpool.Pool the storage depends on.
type DBPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   DBPool
	logger *slog.Logger
}

type userRepository struct {
	storage *Storage
}

type orderRepository struct {
	storage *Storage
}

type escrowRepository struct {
	storage *Storage
}

type confirmationRepository struct {
	storage *Storage
}

type stockRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

var _ repository.Factory = (*Storage)(nil)

// Factory methods for domain repositories.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Escrows() repository.EscrowRepository {
	return &escrowRepository{storage: s}
}

func (s *Storage) Confirmations() repository.ConfirmationRepository {
	return &confirmationRepository{storage: s}
}

func (s *Storage) Stock() repository.StockRepository {
	return &stockRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            login TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS products (
            id SERIAL PRIMARY KEY,
            seller_id BIGINT NOT NULL REFERENCES users(id),
            name TEXT NOT NULL,
            image_url TEXT NOT NULL DEFAULT '',
            price_cents BIGINT NOT NULL,
            stock_quantity INT NOT NULL DEFAULT 0,
            version BIGINT NOT NULL DEFAULT 0,
            active BOOLEAN NOT NULL DEFAULT TRUE
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            id SERIAL PRIMARY KEY,
            customer_id BIGINT NOT NULL REFERENCES users(id),
            ordered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            subtotal_cents BIGINT NOT NULL,
            buyer_fee_cents BIGINT NOT NULL,
            total_cents BIGINT NOT NULL,
            status TEXT NOT NULL,
            payment_status TEXT NOT NULL,
            address TEXT NOT NULL,
            agent_id BIGINT,
            verify_start TIMESTAMPTZ,
            verify_end TIMESTAMPTZ,
            confirmed_receipt BOOLEAN NOT NULL DEFAULT FALSE,
            reported_problem BOOLEAN NOT NULL DEFAULT FALSE,
            cancel_reason TEXT,
            cancelled_at TIMESTAMPTZ
        )`,
		`CREATE TABLE IF NOT EXISTS order_items (
            id SERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id),
            product_id BIGINT NOT NULL REFERENCES products(id),
            seller_id BIGINT NOT NULL,
            quantity INT NOT NULL,
            unit_price_cents BIGINT NOT NULL,
            subtotal_cents BIGINT NOT NULL,
            product_name TEXT NOT NULL,
            product_image TEXT NOT NULL DEFAULT ''
        )`,
		`CREATE TABLE IF NOT EXISTS seller_confirmations (
            order_id BIGINT NOT NULL REFERENCES orders(id),
            seller_id BIGINT NOT NULL,
            confirmed_at TIMESTAMPTZ,
            PRIMARY KEY (order_id, seller_id)
        )`,
		`CREATE TABLE IF NOT EXISTS escrows (
            id SERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id),
            seller_id BIGINT NOT NULL,
            amount_cents BIGINT NOT NULL,
            status TEXT NOT NULL,
            customer_action TEXT NOT NULL DEFAULT 'NONE',
            action_at TIMESTAMPTZ,
            verify_start TIMESTAMPTZ,
            verify_end TIMESTAMPTZ,
            released_at TIMESTAMPTZ,
            released_by TEXT,
            notes TEXT,
            version BIGINT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE (order_id, seller_id)
        )`,
		`CREATE TABLE IF NOT EXISTS stock_adjustments (
            id SERIAL PRIMARY KEY,
            product_id BIGINT NOT NULL REFERENCES products(id),
            previous_qty INT NOT NULL,
            new_qty INT NOT NULL,
            delta INT NOT NULL,
            reason TEXT NOT NULL,
            actor_id BIGINT,
            automated BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id, ordered_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_escrows_sweep ON escrows(status, verify_end)`,
		`CREATE INDEX IF NOT EXISTS idx_escrows_seller ON escrows(seller_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_adjustments_product ON stock_adjustments(product_id, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- UserRepository implementation ---

func (r *userRepository) Create(ctx context.Context, login, passwordHash string, role model.Role) (*model.User, error) {
	const query = `INSERT INTO users (login, password_hash, role) VALUES ($1, $2, $3) RETURNING id, created_at`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, login, passwordHash, role).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	u.Login = login
	u.PasswordHash = passwordHash
	u.Role = role
	return &u, nil
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	const query = `SELECT id, login, password_hash, role, created_at FROM users WHERE login=$1`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, login).Scan(&u.ID, &u.Login, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT id, login, password_hash, role, created_at FROM users WHERE id=$1`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Login, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// --- OrderRepository implementation ---

const orderColumns = `id, customer_id, ordered_at, subtotal_cents, buyer_fee_cents, total_cents,
        status, payment_status, address, agent_id, verify_start, verify_end,
        confirmed_receipt, reported_problem, cancel_reason, cancelled_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.OrderedAt, &o.SubtotalCents, &o.BuyerFeeCents, &o.TotalCents,
		&o.Status, &o.PaymentStatus, &o.Address, &o.AgentID, &o.VerifyStart, &o.VerifyEnd,
		&o.ConfirmedReceipt, &o.ReportedProblem, &o.CancelReason, &o.CancelledAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) CreatePlacement(ctx context.Context, p repository.OrderPlacement) (*model.Order, error) {
	order := *p.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const insertOrder = `INSERT INTO orders (customer_id, subtotal_cents, buyer_fee_cents, total_cents, status, payment_status, address)
                             VALUES ($1, $2, $3, $4, $5, $6, $7)
                             RETURNING id, ordered_at`
		err := tx.QueryRow(ctx, insertOrder,
			order.CustomerID, order.SubtotalCents, order.BuyerFeeCents, order.TotalCents,
			model.OrderStatusPending, model.PaymentStatusPending, order.Address,
		).Scan(&order.ID, &order.OrderedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		order.Status = model.OrderStatusPending
		order.PaymentStatus = model.PaymentStatusPending

		const insertItem = `INSERT INTO order_items (order_id, product_id, seller_id, quantity, unit_price_cents, subtotal_cents, product_name, product_image)
                            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		for _, it := range p.Items {
			if _, err := tx.Exec(ctx, insertItem, order.ID, it.ProductID, it.SellerID,
				it.Quantity, it.UnitPriceCents, it.SubtotalCents, it.ProductName, it.ProductImage); err != nil {
				return fmt.Errorf("insert line item: %w", err)
			}
		}

		// Conditional decrement per product: a stale version aborts the
		// whole placement and the caller retries against fresh reads.
		// Products are updated in ascending ID order so concurrent
		// placements sharing products never deadlock.
		quantities := make(map[int64]int)
		for _, it := range p.Items {
			quantities[it.ProductID] += it.Quantity
		}
		productIDs := make([]int64, 0, len(quantities))
		for productID := range quantities {
			productIDs = append(productIDs, productID)
		}
		slices.Sort(productIDs)

		const decrement = `UPDATE products
                           SET stock_quantity = stock_quantity - $1, version = version + 1
                           WHERE id = $2 AND version = $3 AND stock_quantity >= $1
                           RETURNING stock_quantity`
		for _, productID := range productIDs {
			qty := quantities[productID]
			var newQty int
			err := tx.QueryRow(ctx, decrement, qty, productID, p.Versions[productID]).Scan(&newQty)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return domainErrors.ErrConcurrentModification
				}
				return fmt.Errorf("decrement stock: %w", err)
			}
			if err := r.storage.appendAdjustmentTx(ctx, tx, model.StockAdjustment{
				ProductID:   productID,
				PreviousQty: newQty + qty,
				NewQty:      newQty,
				Delta:       -qty,
				Reason:      model.ReasonOrderPlaced,
				ActorID:     &order.CustomerID,
				Automated:   true,
			}); err != nil {
				return err
			}
		}

		sellerIDs := make([]int64, 0, len(p.SellerShares))
		for sellerID := range p.SellerShares {
			sellerIDs = append(sellerIDs, sellerID)
		}
		slices.Sort(sellerIDs)

		const insertConfirmation = `INSERT INTO seller_confirmations (order_id, seller_id) VALUES ($1, $2)`
		const insertEscrow = `INSERT INTO escrows (order_id, seller_id, amount_cents, status)
                              VALUES ($1, $2, $3, $4)`
		for _, sellerID := range sellerIDs {
			if _, err := tx.Exec(ctx, insertConfirmation, order.ID, sellerID); err != nil {
				return fmt.Errorf("insert confirmation: %w", err)
			}
			if _, err := tx.Exec(ctx, insertEscrow, order.ID, sellerID, p.SellerShares[sellerID], model.EscrowStatusPending); err != nil {
				return fmt.Errorf("insert escrow: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID int64) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id=$1 ORDER BY ordered_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) ListItems(ctx context.Context, orderID int64) ([]model.LineItem, error) {
	const query = `SELECT id, order_id, product_id, seller_id, quantity, unit_price_cents, subtotal_cents, product_name, product_image
                   FROM order_items WHERE order_id=$1 ORDER BY id`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.LineItem
	for rows.Next() {
		var it model.LineItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.SellerID, &it.Quantity,
			&it.UnitPriceCents, &it.SubtotalCents, &it.ProductName, &it.ProductImage); err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) TransitionStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) error {
	const query = `UPDATE orders SET status=$1 WHERE id=$2 AND status=$3`
	tag, err := r.storage.pool.Exec(ctx, query, to, orderID, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrInvalidState
	}
	return nil
}

func (r *orderRepository) AssignAgent(ctx context.Context, orderID, agentID int64) error {
	const query = `UPDATE orders SET agent_id=$1 WHERE id=$2 AND status IN ($3, $4)`
	tag, err := r.storage.pool.Exec(ctx, query, agentID, orderID, model.OrderStatusPending, model.OrderStatusConfirmed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrInvalidState
	}
	return nil
}

func (r *orderRepository) MarkDelivered(ctx context.Context, orderID int64, start, end time.Time) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const updateOrder = `UPDATE orders SET status=$1, payment_status=$2, verify_start=$3, verify_end=$4
                             WHERE id=$5 AND status=$6`
		tag, err := tx.Exec(ctx, updateOrder, model.OrderStatusDelivered, model.PaymentStatusVerification,
			start, end, orderID, model.OrderStatusOnTheWay)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrInvalidState
		}

		const updateEscrows = `UPDATE escrows SET status=$1, verify_start=$2, verify_end=$3, version=version+1
                               WHERE order_id=$4 AND status=$5`
		if _, err := tx.Exec(ctx, updateEscrows, model.EscrowStatusVerification, start, end,
			orderID, model.EscrowStatusPending); err != nil {
			return err
		}
		return nil
	})
}

func (r *orderRepository) Cancel(ctx context.Context, orderID int64, reason string) (*model.RefundSummary, error) {
	summary := &model.RefundSummary{OrderID: orderID}
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const updateOrder = `UPDATE orders SET status=$1, payment_status=$2, cancel_reason=$3, cancelled_at=NOW()
                             WHERE id=$4 AND status=$5`
		tag, err := tx.Exec(ctx, updateOrder, model.OrderStatusCancelled, model.PaymentStatusCancelled,
			reason, orderID, model.OrderStatusPending)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrInvalidState
		}

		// Restore stock for every line item, one ledger row per product.
		const selectQuantities = `SELECT product_id, SUM(quantity) FROM order_items WHERE order_id=$1 GROUP BY product_id ORDER BY product_id`
		rows, err := tx.Query(ctx, selectQuantities, orderID)
		if err != nil {
			return err
		}
		type restore struct {
			productID int64
			qty       int
		}
		var restores []restore
		for rows.Next() {
			var rst restore
			if err := rows.Scan(&rst.productID, &rst.qty); err != nil {
				rows.Close()
				return err
			}
			restores = append(restores, rst)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		const increment = `UPDATE products SET stock_quantity = stock_quantity + $1, version = version + 1
                           WHERE id = $2 RETURNING stock_quantity`
		for _, rst := range restores {
			var newQty int
			if err := tx.QueryRow(ctx, increment, rst.qty, rst.productID).Scan(&newQty); err != nil {
				return fmt.Errorf("restore stock: %w", err)
			}
			if err := r.storage.appendAdjustmentTx(ctx, tx, model.StockAdjustment{
				ProductID:   rst.productID,
				PreviousQty: newQty - rst.qty,
				NewQty:      newQty,
				Delta:       rst.qty,
				Reason:      model.ReasonOrderCancelled,
				Automated:   true,
			}); err != nil {
				return err
			}
		}

		// Money was never collected: close out the escrows.
		const cancelEscrows = `UPDATE escrows SET status=$1, version=version+1 WHERE order_id=$2 AND status=$3`
		if _, err := tx.Exec(ctx, cancelEscrows, model.EscrowStatusCancelled, orderID, model.EscrowStatusPending); err != nil {
			return err
		}

		const selectShares = `SELECT seller_id, amount_cents FROM escrows WHERE order_id=$1 ORDER BY seller_id`
		shareRows, err := tx.Query(ctx, selectShares, orderID)
		if err != nil {
			return err
		}
		defer shareRows.Close()
		for shareRows.Next() {
			var line model.RefundLine
			if err := shareRows.Scan(&line.SellerID, &line.AmountCents); err != nil {
				return err
			}
			summary.Lines = append(summary.Lines, line)
			summary.TotalCents += line.AmountCents
		}
		return shareRows.Err()
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (r *orderRepository) CompleteReceipt(ctx context.Context, orderID int64) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const updateOrder = `UPDATE orders SET status=$1, payment_status=$2, confirmed_receipt=TRUE
                             WHERE id=$3 AND status=$4 AND reported_problem=FALSE`
		tag, err := tx.Exec(ctx, updateOrder, model.OrderStatusCompleted, model.PaymentStatusSettled,
			orderID, model.OrderStatusDelivered)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrNotEligible
		}

		const releaseEscrows = `UPDATE escrows
                                SET status=$1, customer_action=$2, action_at=NOW(),
                                    released_at=NOW(), released_by=$3, version=version+1
                                WHERE order_id=$4 AND status=$5`
		if _, err := tx.Exec(ctx, releaseEscrows, model.EscrowStatusConfirmed, model.CustomerActionConfirmed,
			model.ReleasedByCustomer, orderID, model.EscrowStatusVerification); err != nil {
			return err
		}
		return nil
	})
}

func (r *orderRepository) MarkDisputed(ctx context.Context, orderID int64) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		// Freeze first: when the sweep already auto-released every
		// escrow the report lost the race and must not dispute an
		// order whose funds are gone.
		const freezeEscrows = `UPDATE escrows
                               SET status=$1, customer_action=$2, action_at=NOW(), version=version+1
                               WHERE order_id=$3 AND status=$4`
		frozen, err := tx.Exec(ctx, freezeEscrows, model.EscrowStatusFrozen, model.CustomerActionReported,
			orderID, model.EscrowStatusVerification)
		if err != nil {
			return err
		}
		if frozen.RowsAffected() == 0 {
			return domainErrors.ErrNotEligible
		}

		const updateOrder = `UPDATE orders SET status=$1, reported_problem=TRUE
                             WHERE id=$2 AND status=$3`
		tag, err := tx.Exec(ctx, updateOrder, model.OrderStatusDisputed, orderID, model.OrderStatusDelivered)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrNotEligible
		}
		return nil
	})
}

// --- EscrowRepository implementation ---

const escrowColumns = `id, order_id, seller_id, amount_cents, status, customer_action, action_at,
        verify_start, verify_end, released_at, released_by, notes, version, created_at`

func scanEscrow(row pgx.Row) (*model.Escrow, error) {
	var e model.Escrow
	err := row.Scan(&e.ID, &e.OrderID, &e.SellerID, &e.AmountCents, &e.Status, &e.CustomerAction, &e.ActionAt,
		&e.VerifyStart, &e.VerifyEnd, &e.ReleasedAt, &e.ReleasedBy, &e.Notes, &e.Version, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *escrowRepository) GetByID(ctx context.Context, id int64) (*model.Escrow, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrows WHERE id=$1`
	escrow, err := scanEscrow(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return escrow, nil
}

func (r *escrowRepository) listEscrows(ctx context.Context, query string, arg any) ([]model.Escrow, error) {
	rows, err := r.storage.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Escrow
	for rows.Next() {
		escrow, err := scanEscrow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *escrow)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *escrowRepository) ListByOrder(ctx context.Context, orderID int64) ([]model.Escrow, error) {
	return r.listEscrows(ctx, `SELECT `+escrowColumns+` FROM escrows WHERE order_id=$1 ORDER BY seller_id`, orderID)
}

func (r *escrowRepository) ListBySeller(ctx context.Context, sellerID int64) ([]model.Escrow, error) {
	return r.listEscrows(ctx, `SELECT `+escrowColumns+` FROM escrows WHERE seller_id=$1 ORDER BY created_at DESC`, sellerID)
}

func (r *escrowRepository) SelectExpired(ctx context.Context, now time.Time, limit int) ([]model.Escrow, error) {
	query := `SELECT ` + escrowColumns + `
              FROM escrows
              WHERE status=$1 AND customer_action=$2 AND verify_end < $3
              ORDER BY verify_end
              LIMIT $4
              FOR UPDATE SKIP LOCKED`

	var escrows []model.Escrow
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, model.EscrowStatusVerification, model.CustomerActionNone, now, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			escrow, err := scanEscrow(rows)
			if err != nil {
				return err
			}
			escrows = append(escrows, *escrow)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return escrows, nil
}

func (r *escrowRepository) Release(ctx context.Context, escrowID, version int64, to model.EscrowStatus, actor string, notes *string) (bool, error) {
	if !to.Released() {
		return false, fmt.Errorf("release to non-released status %s", to)
	}

	// Manual release is the only path out of FROZEN; the customer and
	// timer variants only act on a live verification window.
	allowedFrom := []any{model.EscrowStatusVerification, model.EscrowStatusVerification}
	if to == model.EscrowStatusManualRelease {
		allowedFrom[1] = model.EscrowStatusFrozen
	}

	const query = `UPDATE escrows
                   SET status=$1, released_at=NOW(), released_by=$2, notes=COALESCE($3, notes), version=version+1
                   WHERE id=$4 AND version=$5 AND status IN ($6, $7)`
	args := append([]any{to, actor, notes, escrowID, version}, allowedFrom...)
	tag, err := r.storage.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *escrowRepository) Freeze(ctx context.Context, escrowID, version int64, notes *string) (bool, error) {
	const query = `UPDATE escrows SET status=$1, notes=COALESCE($2, notes), version=version+1
                   WHERE id=$3 AND version=$4 AND status=$5`
	tag, err := r.storage.pool.Exec(ctx, query, model.EscrowStatusFrozen, notes, escrowID, version, model.EscrowStatusVerification)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *escrowRepository) MarkDisputed(ctx context.Context, escrowID, version int64, notes *string) (bool, error) {
	const query = `UPDATE escrows SET status=$1, notes=COALESCE($2, notes), version=version+1
                   WHERE id=$3 AND version=$4 AND status=$5`
	tag, err := r.storage.pool.Exec(ctx, query, model.EscrowStatusDisputed, notes, escrowID, version, model.EscrowStatusFrozen)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// --- ConfirmationRepository implementation ---

func (r *confirmationRepository) ListByOrder(ctx context.Context, orderID int64) ([]model.SellerConfirmation, error) {
	const query = `SELECT order_id, seller_id, confirmed_at FROM seller_confirmations WHERE order_id=$1 ORDER BY seller_id`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.SellerConfirmation
	for rows.Next() {
		var c model.SellerConfirmation
		if err := rows.Scan(&c.OrderID, &c.SellerID, &c.ConfirmedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *confirmationRepository) Confirm(ctx context.Context, orderID, sellerID int64, at time.Time) (bool, error) {
	const update = `UPDATE seller_confirmations SET confirmed_at=$1
                    WHERE order_id=$2 AND seller_id=$3 AND confirmed_at IS NULL`
	tag, err := r.storage.pool.Exec(ctx, update, at, orderID, sellerID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// No row updated: either already confirmed (idempotent no-op) or
	// the seller has no items on the order.
	const exists = `SELECT 1 FROM seller_confirmations WHERE order_id=$1 AND seller_id=$2`
	var one int
	err = r.storage.pool.QueryRow(ctx, exists, orderID, sellerID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domainErrors.ErrNotFound
		}
		return false, err
	}
	return false, nil
}

// --- StockRepository implementation ---

const productColumns = `id, seller_id, name, image_url, price_cents, stock_quantity, version, active`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.SellerID, &p.Name, &p.ImageURL, &p.PriceCents, &p.StockQuantity, &p.Version, &p.Active)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *stockRepository) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id=$1`
	product, err := scanProduct(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return product, nil
}

func (r *stockRepository) GetProducts(ctx context.Context, ids []int64) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY id`
	rows, err := r.storage.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *stockRepository) Adjust(ctx context.Context, productID, expectedVersion int64, newQty int, adj model.StockAdjustment) (*model.Product, error) {
	var product *model.Product
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const update = `UPDATE products SET stock_quantity=$1, version=version+1
                        WHERE id=$2 AND version=$3`
		tag, err := tx.Exec(ctx, update, newQty, productID, expectedVersion)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrConcurrentModification
		}

		if err := r.storage.appendAdjustmentTx(ctx, tx, adj); err != nil {
			return err
		}

		query := `SELECT ` + productColumns + ` FROM products WHERE id=$1`
		product, err = scanProduct(tx.QueryRow(ctx, query, productID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *stockRepository) BulkAdjust(ctx context.Context, changes []repository.StockChange, reason model.AdjustmentReason, actorID *int64) ([]model.StockAdjustment, error) {
	var applied []model.StockAdjustment
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const lockProduct = `SELECT stock_quantity, version FROM products WHERE id=$1 FOR UPDATE`
		const update = `UPDATE products SET stock_quantity=$1, version=version+1 WHERE id=$2 AND version=$3`

		for _, ch := range changes {
			var qty int
			var version int64
			err := tx.QueryRow(ctx, lockProduct, ch.ProductID).Scan(&qty, &version)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return domainErrors.ErrNotFound
				}
				return err
			}

			newQty := qty + ch.Delta
			if newQty < 0 {
				return domainErrors.ErrNegativeStock
			}

			tag, err := tx.Exec(ctx, update, newQty, ch.ProductID, version)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return domainErrors.ErrConcurrentModification
			}

			adj := model.StockAdjustment{
				ProductID:   ch.ProductID,
				PreviousQty: qty,
				NewQty:      newQty,
				Delta:       ch.Delta,
				Reason:      reason,
				ActorID:     actorID,
			}
			if err := r.storage.appendAdjustmentTx(ctx, tx, adj); err != nil {
				return err
			}
			applied = append(applied, adj)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

func (r *stockRepository) ListAdjustments(ctx context.Context, productID int64) ([]model.StockAdjustment, error) {
	const query = `SELECT id, product_id, previous_qty, new_qty, delta, reason, actor_id, automated, created_at
                   FROM stock_adjustments WHERE product_id=$1 ORDER BY created_at DESC`
	rows, err := r.storage.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.StockAdjustment
	for rows.Next() {
		var a model.StockAdjustment
		if err := rows.Scan(&a.ID, &a.ProductID, &a.PreviousQty, &a.NewQty, &a.Delta,
			&a.Reason, &a.ActorID, &a.Automated, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Storage) appendAdjustmentTx(ctx context.Context, tx pgx.Tx, adj model.StockAdjustment) error {
	const insert = `INSERT INTO stock_adjustments (product_id, previous_qty, new_qty, delta, reason, actor_id, automated)
                    VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.Exec(ctx, insert, adj.ProductID, adj.PreviousQty, adj.NewQty, adj.Delta,
		adj.Reason, adj.ActorID, adj.Automated); err != nil {
		return fmt.Errorf("append stock adjustment: %w", err)
	}
	return nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Pool exposes raw connection pool for advanced use.
func (s *Storage) Pool() DBPool {
	return s.pool
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
