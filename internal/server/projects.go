package server

import (
	"net/http"
)

func (s *Server) handleListProjects(
	w http.ResponseWriter, r *http.Request,
) {
	projects, err := s.store.ListProjects()
	if err != nil {
		writeStoreError(w, "listing projects", err)
		return
	}
	writeData(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(
	w http.ResponseWriter, r *http.Request,
) {
	p, err := s.store.GetProject(r.PathValue("hash"))
	if err != nil {
		writeStoreError(w, "getting project", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	writeData(w, http.StatusOK, p)
}

func (s *Server) handleGetClaudeMd(
	w http.ResponseWriter, r *http.Request,
) {
	f, err := s.store.GetClaudeMd(r.PathValue("hash"))
	if err != nil {
		writeStoreError(w, "getting CLAUDE.md", err)
		return
	}
	if f == nil {
		writeError(w, http.StatusNotFound, "CLAUDE.md not found")
		return
	}
	writeData(w, http.StatusOK, f)
}

func (s *Server) handleGetMemory(
	w http.ResponseWriter, r *http.Request,
) {
	files, err := s.store.GetMemoryFiles(r.PathValue("hash"))
	if err != nil {
		writeStoreError(w, "getting memory files", err)
		return
	}
	writeData(w, http.StatusOK, files)
}

func (s *Server) handleGetSkills(
	w http.ResponseWriter, r *http.Request,
) {
	skills, err := s.store.GetSkills(r.PathValue("hash"))
	if err != nil {
		writeStoreError(w, "getting skills", err)
		return
	}
	writeData(w, http.StatusOK, skills)
}

func (s *Server) handleGetSettings(
	w http.ResponseWriter, r *http.Request,
) {
	settings, err := s.store.GetUserSettings()
	if err != nil {
		writeStoreError(w, "getting settings", err)
		return
	}
	writeData(w, http.StatusOK, settings)
}

func (s *Server) handleGetUserClaudeMd(
	w http.ResponseWriter, r *http.Request,
) {
	content, err := s.store.GetUserClaudeMd()
	if err != nil {
		writeStoreError(w, "getting user CLAUDE.md", err)
		return
	}
	writeData(w, http.StatusOK, content)
}

func (s *Server) handleGetRules(
	w http.ResponseWriter, r *http.Request,
) {
	rules, err := s.store.GetUserRules()
	if err != nil {
		writeStoreError(w, "getting rules", err)
		return
	}
	writeData(w, http.StatusOK, rules)
}

func (s *Server) handleGetStats(
	w http.ResponseWriter, r *http.Request,
) {
	stats, err := s.store.GetGlobalStats()
	if err != nil {
		writeStoreError(w, "getting stats", err)
		return
	}
	writeData(w, http.StatusOK, stats)
}
