package app

import "serotonyl.ru/invest-bot/internal/db/postgres"

// SQL-миграции встроены в код, чтобы бинарник поднимал схему сам.
// Новые версии только добавляются в конец списка.
var migrations = []postgres.Migration{
	{Version: 1, Name: "users", SQL: migration001Users},
	{Version: 2, Name: "investments", SQL: migration002Investments},
	{Version: 3, Name: "withdrawals", SQL: migration003Withdrawals},
	{Version: 4, Name: "receipts", SQL: migration004Receipts},
	{Version: 5, Name: "ledger_entries", SQL: migration005Ledger},
	{Version: 6, Name: "accrual_runs", SQL: migration006AccrualRuns},
}

var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    telegram_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255) NOT NULL DEFAULT '',
    first_name VARCHAR(255) NOT NULL DEFAULT '',
    balance NUMERIC(18,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
    referrer_id BIGINT REFERENCES users(id),
    referral_code VARCHAR(32) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT users_referral_code_key UNIQUE (referral_code)
);
CREATE INDEX IF NOT EXISTS idx_users_referrer_id ON users(referrer_id);
`

var migration002Investments = `
CREATE TABLE IF NOT EXISTS investments (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    amount NUMERIC(18,2) NOT NULL CHECK (amount > 0),
    plan VARCHAR(64) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    active BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_investments_user_id ON investments(user_id);
CREATE INDEX IF NOT EXISTS idx_investments_active ON investments(active);
`

var migration003Withdrawals = `
CREATE TABLE IF NOT EXISTS withdrawals (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    amount NUMERIC(18,2) NOT NULL CHECK (amount > 0),
    status VARCHAR(32) NOT NULL DEFAULT 'pending',
    card_last4 VARCHAR(4) NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_withdrawals_user_id ON withdrawals(user_id);
`

var migration004Receipts = `
CREATE TABLE IF NOT EXISTS receipts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    investment_id BIGINT NOT NULL REFERENCES investments(id),
    file_id TEXT NOT NULL,
    file_type VARCHAR(16) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_receipts_created_at ON receipts(created_at DESC);
`

var migration005Ledger = `
CREATE TABLE IF NOT EXISTS ledger_entries (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    amount NUMERIC(18,2) NOT NULL,
    kind VARCHAR(32) NOT NULL,
    ref_id BIGINT,
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_user_id ON ledger_entries(user_id, created_at DESC);
`

var migration006AccrualRuns = `
CREATE TABLE IF NOT EXISTS accrual_runs (
    period_key TEXT PRIMARY KEY,
    profit_total NUMERIC(18,2) NOT NULL DEFAULT 0,
    referral_total NUMERIC(18,2) NOT NULL DEFAULT 0,
    credits INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
