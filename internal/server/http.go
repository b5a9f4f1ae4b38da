package server

import (
	"encoding/json"
	"net/http"

	"github.com/zeusync/suika/internal/core/kinds"
	"github.com/zeusync/suika/internal/core/observability/log"
)

// KindInfo is one catalog entry as served by /kinds.
type KindInfo struct {
	kinds.Kind
	kinds.Style
	Color     string `json:"color"`
	Spawnable bool   `json:"spawnable"`
	Terminal  bool   `json:"terminal"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.session.Snapshot())
}

func (s *Server) handleKinds(w http.ResponseWriter, _ *http.Request) {
	table := s.session.Table()
	out := make([]KindInfo, 0, table.Len())
	for _, k := range table.Kinds() {
		info := KindInfo{
			Kind:      k,
			Spawnable: table.IsSpawnable(k),
			Terminal:  table.IsTerminal(k),
		}
		if s.palette != nil {
			info.Style = s.palette.Style(k)
			info.Color = info.Style.Color.Hex()
		}
		out = append(out, info)
	}
	s.writeJSON(w, out)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", log.Error(err))
	}
}
