// Package journal records admission decisions for later inspection.
//
// A Recorder accepts decisions without blocking and writes them from a
// background worker to a Storage backend: MemoryStorage, or SQLiteStorage on
// either modernc.org/sqlite ("sqlite") or github.com/mattn/go-sqlite3
// ("sqlite3"). Summarize aggregates stored decisions per limiter kind, and
// Retention prunes old decisions on a cron schedule.
//
// Basic usage:
//
//	store, err := journal.Open(cfg.Journal)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	rec := journal.NewRecorder(store, nil, nil)
//	defer rec.Close()
//
//	rec.Record(ratelimit.KindTokenBucket, 1, true)
package journal
