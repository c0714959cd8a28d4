package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/oshiscout/internal/model"
	"github.com/hitoshi/oshiscout/internal/repository"
)

// NetworkHandler はネットワークノード管理のHTTPハンドラー。
// ノードの作成はエージェント（発見）のみが行うため、READとDeactivateだけを提供する。
type NetworkHandler struct {
	oshiRepo oshiFinder
	nodeRepo repository.NodeRepository
}

// NewNetworkHandler はNetworkHandlerを生成する。
func NewNetworkHandler(oshiRepo oshiFinder, nodeRepo repository.NodeRepository) *NetworkHandler {
	return &NetworkHandler{
		oshiRepo: oshiRepo,
		nodeRepo: nodeRepo,
	}
}

// nodeResponse はネットワークノードのAPIレスポンス。
type nodeResponse struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	NodeType       string   `json:"node_type"`
	Ring           int      `json:"ring"`
	Relationship   string   `json:"relationship"`
	SearchQueries  []string `json:"search_queries"`
	IsActive       bool     `json:"is_active"`
	LastSearchedAt string   `json:"last_searched_at,omitempty"`
}

// networkListResponse はネットワーク一覧のレスポンス。
type networkListResponse struct {
	OshiID string         `json:"oshi_id"`
	Nodes  []nodeResponse `json:"nodes"`
}

// toNodeResponse はmodel.NetworkNodeからAPIレスポンスに変換する。
func toNodeResponse(node *model.NetworkNode) nodeResponse {
	resp := nodeResponse{
		ID:            node.ID,
		Name:          node.Name,
		NodeType:      string(node.Kind),
		Ring:          int(node.Ring),
		Relationship:  node.Relationship,
		SearchQueries: node.SearchQueries,
		IsActive:      node.IsActive,
	}
	if node.LastSearchedAt != nil {
		resp.LastSearchedAt = node.LastSearchedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// ListNetwork は推しのネットワーク一覧を取得する。非アクティブノードも含む。
// GET /api/agent/network/:oshi_id
func (h *NetworkHandler) ListNetwork(w http.ResponseWriter, r *http.Request) {
	oshi, ok := resolveOwnedOshi(w, r, h.oshiRepo, chi.URLParam(r, "oshi_id"))
	if !ok {
		return
	}

	nodes, err := h.nodeRepo.ListByOshi(r.Context(), oshi.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]nodeResponse, 0, len(nodes))
	for _, node := range nodes {
		responses = append(responses, toNodeResponse(node))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(networkListResponse{
		OshiID: oshi.ID,
		Nodes:  responses,
	})
}

// DeactivateNode はノードを監視対象から外す。物理削除はしない。
// POST /api/agent/network/nodes/:node_id/deactivate
func (h *NetworkHandler) DeactivateNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "node_id")

	node, err := h.nodeRepo.FindByID(r.Context(), nodeID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if node == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNodeNotFoundError(nodeID))
		return
	}

	// ノードの属する推しの所有者であることを検証
	if _, ok := resolveOwnedOshi(w, r, h.oshiRepo, node.OshiID); !ok {
		return
	}

	updated, err := h.nodeRepo.Deactivate(r.Context(), nodeID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !updated {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNodeNotFoundError(nodeID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
