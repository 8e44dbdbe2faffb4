package repository

// Tx is an infra-defined transaction handle (pgx.Tx for Postgres).
// Repositories must accept nil and fall back to a non-transactional path.
type Tx interface{}
