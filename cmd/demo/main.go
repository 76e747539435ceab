package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/shinyes/yep_counter/pkg/db"
	"github.com/shinyes/yep_counter/pkg/store"
)

// 演示：两个副本独立累加同一个计数器单元格，
// 交换状态后收敛到同一个值。

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	replicaA := openReplica(log, "replica-a")
	replicaB := openReplica(log, "replica-b")
	defer replicaA.Close()
	defer replicaB.Close()

	tableA, err := replicaA.DefineTable("stats", "visits")
	if err != nil {
		log.Fatal().Err(err).Msg("定义表失败")
	}
	tableB, err := replicaB.DefineTable("stats", "visits")
	if err != nil {
		log.Fatal().Err(err).Msg("定义表失败")
	}

	// 副本 A：创建行并把基值设为 10
	must(log, replicaA.Begin())
	row, err := tableA.NewRow()
	if err != nil {
		log.Fatal().Err(err).Msg("创建行失败")
	}
	row.EndConstruction()
	visits, err := row.Counter("visits")
	if err != nil {
		log.Fatal().Err(err).Msg("绑定计数器失败")
	}
	must(log, visits.Set(10))
	must(log, replicaA.Commit())

	// 把行同步给副本 B
	key := row.Key()
	cells, err := tableA.ExportRow(key)
	if err != nil {
		log.Fatal().Err(err).Msg("导出行失败")
	}
	must(log, tableB.ApplyRemoteRow(key, cells))

	// 两个副本各自独立累加
	must(log, replicaA.Begin())
	must(log, visits.Increment(5))
	must(log, replicaA.Commit())

	rowB, err := tableB.Row(key)
	if err != nil {
		log.Fatal().Err(err).Msg("查找行失败")
	}
	visitsB, err := rowB.Counter("visits")
	if err != nil {
		log.Fatal().Err(err).Msg("绑定计数器失败")
	}
	must(log, replicaB.Begin())
	must(log, visitsB.Increment(3))
	must(log, replicaB.Commit())

	// 交换状态
	rawA, err := tableA.ExportCell(key, "visits")
	if err != nil {
		log.Fatal().Err(err).Msg("导出失败")
	}
	rawB, err := tableB.ExportCell(key, "visits")
	if err != nil {
		log.Fatal().Err(err).Msg("导出失败")
	}
	must(log, tableB.ApplyRemoteCell(key, "visits", rawA))
	must(log, tableA.ApplyRemoteCell(key, "visits", rawB))

	va, _ := visits.Int64()
	vb, _ := visitsB.Int64()
	log.Info().Int64("replica_a", va).Int64("replica_b", vb).Msg("收敛结果")
}

func openReplica(log zerolog.Logger, name string) *db.DB {
	s, err := store.NewBadgerStore("", store.WithBadgerInMemory())
	if err != nil {
		log.Fatal().Err(err).Str("replica", name).Msg("打开存储失败")
	}
	d, err := db.Open(s, "demo", db.WithLogger(log.With().Str("replica", name).Logger()))
	if err != nil {
		log.Fatal().Err(err).Str("replica", name).Msg("打开会话失败")
	}
	return d
}

func must(log zerolog.Logger, err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("操作失败")
	}
}
