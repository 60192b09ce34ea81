// Package api serves stored FoF results as JSON.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/banshee-data/galaxygroups/internal/db"
	"github.com/banshee-data/galaxygroups/internal/httputil"
)

// DefaultRunLimit caps /api/runs when no limit is given.
const DefaultRunLimit = 100

// Server answers read-only queries against a results database.
type Server struct {
	db *db.DB
}

func NewServer(store *db.DB) *Server {
	return &Server{db: store}
}

// Register mounts the API routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.getRun)
	mux.HandleFunc("GET /api/runs/{id}/groups", s.listGroups)
	mux.HandleFunc("GET /api/runs/{id}/groups/{index}/members", s.listMembers)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := DefaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.BadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	runs, err := s.db.ListRuns(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, err)
		return
	}
	if runs == nil {
		runs = []db.RunRecord{}
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.db.Run(r.Context(), r.PathValue("id"))
	if errors.Is(err, db.ErrRunNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err)
		return
	}
	httputil.WriteJSONOK(w, run)
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.db.Run(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrRunNotFound) {
			httputil.NotFound(w, err.Error())
		} else {
			httputil.InternalServerError(w, err)
		}
		return
	}

	groups, err := s.db.GroupsForRun(r.Context(), id)
	if err != nil {
		httputil.InternalServerError(w, err)
		return
	}
	if r.URL.Query().Get("min_multiplicity") != "" {
		minMult, err := strconv.Atoi(r.URL.Query().Get("min_multiplicity"))
		if err != nil {
			httputil.BadRequest(w, "min_multiplicity must be an integer")
			return
		}
		kept := groups[:0]
		for _, g := range groups {
			if g.Multiplicity >= minMult {
				kept = append(kept, g)
			}
		}
		groups = kept
	}
	if groups == nil {
		groups = []db.GroupRecord{}
	}
	httputil.WriteJSONOK(w, groups)
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		httputil.BadRequest(w, "group index must be a non-negative integer")
		return
	}
	members, err := s.db.MembersForGroup(r.Context(), r.PathValue("id"), index)
	if err != nil {
		httputil.InternalServerError(w, err)
		return
	}
	if len(members) == 0 {
		httputil.NotFound(w, "group not found")
		return
	}
	httputil.WriteJSONOK(w, members)
}
