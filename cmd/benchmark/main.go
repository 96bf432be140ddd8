package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/arjunsk/halleykv/cmd/benchmark/generator"
	"github.com/arjunsk/halleykv/cmd/benchmark/lotsaa"
	engine "github.com/arjunsk/halleykv/pkg/engine"
	"github.com/arjunsk/halleykv/pkg/hlc"
	"github.com/arjunsk/halleykv/pkg/kv"
	"golang.org/x/exp/rand"
)

var globalInsertCounter atomic.Int64
var globalConflictCounter atomic.Int64

func main() {

	lotsaa.Output = os.Stdout

	keyRange := int64(1_000_000)
	scanWidth := 100
	variableWidth := true

	testDuration := 1 * time.Minute
	scanThreadCount := 16

	txnTTL := 10 * time.Second

	fmt.Printf("** New Run %s ** \n", time.Now().Format("2006_01_02_15_04_05"))
	fmt.Printf("Scan Width = %d, Variable Width = %t \n", scanWidth, variableWidth)

	for tc := scanThreadCount; tc <= 256; tc = tc * 2 {
		VersionedScanBenchTest(txnTTL, testDuration, engine.TWBTree, "tw_btree", keyRange, scanWidth, tc, variableWidth)
		VersionedScanBenchTest(txnTTL, testDuration, engine.GBTree, "g_btree", keyRange, scanWidth, tc, variableWidth)

		fmt.Printf("Batch Completed %s \n", time.Now().Format("2006_01_02_15_04_05"))
		fmt.Println("----------------------------------------------------------------------------------------------")
	}

}

func VersionedScanBenchTest(txnTTL, testDuration time.Duration, typ engine.Typ, name string, keyRange int64, scanWidth, scanThreadCount int, variableWidth bool) {

	// 1. Build the store
	db, err := kv.New(kv.Options{Engine: typ, TxnTTL: txnTTL})
	if err != nil {
		panic(err)
	}

	// 2.a Start single writer to the store
	ctx, cancel := context.WithCancel(context.Background())
	SingleWriter(ctx, keyRange, db)

	// 2.b Let the writer lay down some versions
	time.Sleep(15 * time.Second)

	// 2.c Reset counters
	globalInsertCounter.Store(0)
	globalConflictCounter.Store(0)

	// 3. Multi reader
	MultiReader(db, name, keyRange, scanWidth, scanThreadCount, testDuration, variableWidth)
	cancel()
	time.Sleep(time.Second)
	db.Close()

	// 4. Print custom global stats
	fmt.Printf(" I = %d C=%d\n", globalInsertCounter.Load(), globalConflictCounter.Load())

	// 5. GC between runs
	runtime.GC()
}

func SingleWriter(ctx context.Context, keyRange int64, db kv.DB) {
	randSeq := rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	keygen := generator.Build(generator.UNIFORM, 1, keyRange)

	val := make([]byte, 1024)
	go func() {
		for {

			select {
			case <-ctx.Done():
				return
			default:
				// key length 16 --> cache padding improvement
				key := fmt.Sprintf("%16d", keygen.Next(randSeq))
				randSeq.Read(val)

				// every write starts its own transaction so readers race
				// against live intents, not only committed versions
				tx := db.Begin()
				if err := db.Put([]byte(key), val, tx); err != nil {
					_ = db.Abort(tx)
					globalConflictCounter.Add(1)
					continue
				}
				_ = db.Commit(tx)

				globalInsertCounter.Add(1)
			}
		}
	}()
}

func MultiReader(db kv.DB, name string, keyRange int64, scanWidth, threadCount int, testDuration time.Duration, variableWidth bool) {
	fmt.Print(name, "			")

	keyGen := generator.Build(generator.UNIFORM, 1, keyRange)
	scanWidthGen := generator.Build(generator.UNIFORM, 1, int64(scanWidth))

	lotsaa.Ops(testDuration, threadCount, func(threadRand *rand.Rand, threadIdx int) {
		id := keyGen.Next(threadRand)

		var count int
		if variableWidth {
			count = int(scanWidthGen.Next(threadRand))
		} else {
			count = scanWidth
		}

		start := fmt.Sprintf("%16d", id)
		end := fmt.Sprintf("%16d", id+int64(count))

		res, err := db.Scan([]byte(start), []byte(end), hlc.Timestamp{}, count, nil)
		if err != nil {
			globalConflictCounter.Add(1)
			return
		}
		globalConflictCounter.Add(int64(len(res.Intents)))
	})
}
