package main

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/banshee-data/galaxygroups/internal/fof"
)

// writeAssignments writes one galaxy_id,group_id row per galaxy, ordered by
// galaxy id.
func writeAssignments(w io.Writer, groups [][]int) error {
	type row struct{ galaxy, group int }
	var rows []row
	for gi, members := range groups {
		for _, id := range members {
			rows = append(rows, row{id, gi})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].galaxy < rows[j].galaxy })

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"galaxy_id", "group_id"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{strconv.Itoa(r.galaxy), strconv.Itoa(r.group)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func memberLists(groups []fof.Group) [][]int {
	out := make([][]int, len(groups))
	for i, g := range groups {
		out[i] = g.Members
	}
	return out
}

// openOutput returns stdout for "-" or an empty path, else creates path.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
