//go:build ignore

package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

func main() {
	path := "deploy/dogfood/fxgraph.db"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	var total int
	if err := db.QueryRow("SELECT count(*) FROM snapshots").Scan(&total); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Total snapshots: %d\n", total)

	rows, err := db.Query("SELECT dataset_type, count(*), avg(node_count), avg(edge_count) FROM snapshots GROUP BY dataset_type ORDER BY dataset_type")
	if err != nil {
		log.Fatal(err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		var nodes, edges float64
		if err := rows.Scan(&kind, &n, &nodes, &edges); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("  %-9s %4d snapshots, avg %.1f nodes, %.1f edges\n", kind, n, nodes, edges)
	}
	if err := rows.Err(); err != nil {
		log.Fatal(err)
	}

	// Metadata counts must agree with the stored payload.
	var mismatched int
	err = db.QueryRow(`SELECT count(*) FROM snapshots
		WHERE node_count != json_array_length(graph_payload, '$.nodes')
		   OR edge_count != json_array_length(graph_payload, '$.edges')`).Scan(&mismatched)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Count mismatches: %d\n", mismatched)

	var raw []byte
	err = db.QueryRow("SELECT value FROM app_state WHERE key = 'session'").Scan(&raw)
	switch {
	case err == sql.ErrNoRows:
		fmt.Println("Session: not persisted yet")
	case err != nil:
		log.Fatal(err)
	default:
		var st struct {
			Page   string `json:"current_page"`
			Loaded string `json:"loaded_graph_snapshot_id"`
		}
		if err := json.Unmarshal(raw, &st); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Session: page=%s loaded=%q\n", st.Page, st.Loaded)
	}

	if mismatched > 0 {
		os.Exit(1)
	}
}
