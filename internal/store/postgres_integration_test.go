// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/store"
)

func startPostgres(ctx context.Context) (*postgres.PostgresContainer, string) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("vetclinic_test"),
		postgres.WithUsername("vetclinic"),
		postgres.WithPassword("vetclinic"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	Expect(err).NotTo(HaveOccurred())

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	Expect(err).NotTo(HaveOccurred())
	return container, connStr
}

var _ = Describe("Connect", func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		connStr   string
		pool      *pgxpool.Pool
	)

	BeforeEach(func() {
		ctx = context.Background()
		container, connStr = startPostgres(ctx)
	})

	AfterEach(func() {
		if pool != nil {
			pool.Close()
		}
		_ = container.Terminate(ctx)
	})

	It("opens a pool that can reach the migrated schema", func() {
		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		pool, err = store.Connect(ctx, connStr, store.PoolConfig{
			MaxConns:       4,
			ConnectTimeout: 10 * time.Second,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(pool.Config().MaxConns).To(Equal(int32(4)))

		var indexes int
		err = pool.QueryRow(ctx,
			`SELECT count(*) FROM pg_indexes WHERE tablename = 'users'`).Scan(&indexes)
		Expect(err).NotTo(HaveOccurred())
		Expect(indexes).To(Equal(3), "primary key, lower(email) and created_at")
	})

	It("rejects a role outside the allowed set", func() {
		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		pool, err = store.Connect(ctx, connStr, store.PoolConfig{ConnectTimeout: 10 * time.Second})
		Expect(err).NotTo(HaveOccurred())

		_, err = pool.Exec(ctx,
			`INSERT INTO users (id, email, password_hash, role) VALUES ('x', 'a@b.c', 'h', 'OWNER')`)
		Expect(err).To(HaveOccurred())
	})
})
