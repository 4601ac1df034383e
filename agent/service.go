package agent

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

const defaultPageSize = 20

type Service struct {
	engine     *gin.Engine
	indexer    *ChainIndexer
	listenAddr string
}

func NewService(ListenAddr string, indexer *ChainIndexer) *Service {
	r := gin.Default()
	s := &Service{
		engine:     r,
		indexer:    indexer,
		listenAddr: ListenAddr,
	}
	s.engine.POST("/getGroups", s.handleGetGroups)
	s.engine.POST("/getProposals", s.handleGetProposals)
	s.engine.POST("/getTransactions", s.handleGetTransactions)
	return s
}

func (s *Service) Start() error {
	return s.engine.Run(s.listenAddr)
}

func pageOf(page, pageSize int) (int, int) {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return page, pageSize
}

func errStatus(err error) int {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

type GroupInfo struct {
	Group   Group    `json:"group"`
	Members []Member `json:"members"`
}

type GetGroupsReq struct {
	Group    string `json:"group"`
	Member   string `json:"member"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type GetGroupsResponse struct {
	Groups []GroupInfo `json:"groups"`
	Total  uint64      `json:"total"`
}

func (s *Service) handleGetGroups(c *gin.Context) {
	var response GetGroupsResponse
	response.Groups = make([]GroupInfo, 0)
	var requestData GetGroupsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if requestData.Group != "" {
		info, err := s.getGroupInfo(requestData.Group)
		if err != nil {
			c.JSON(errStatus(err), gin.H{"error": err.Error()})
			return
		}
		response.Groups = append(response.Groups, info)
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}

	page, pageSize := pageOf(requestData.Page, requestData.PageSize)
	var groups []Group
	var total uint64
	var err error
	if requestData.Member != "" {
		groups, total, err = s.indexer.getGroupsByMember(requestData.Member, page, pageSize)
	} else {
		groups, total, err = s.indexer.getGroups(page, pageSize)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Total = total
	for _, group := range groups {
		members, err := s.indexer.getMembers(group.Address)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Groups = append(response.Groups, GroupInfo{Group: group, Members: members})
	}
	c.JSON(http.StatusOK, response)
}

func (s *Service) getGroupInfo(address string) (GroupInfo, error) {
	group, err := s.indexer.getGroup(address)
	if err != nil {
		return GroupInfo{}, err
	}
	members, err := s.indexer.getMembers(address)
	if err != nil {
		return GroupInfo{}, err
	}
	return GroupInfo{Group: group, Members: members}, nil
}

type ProposalInfo struct {
	Proposal Proposal `json:"proposal"`
	Votes    []Vote   `json:"votes"`
}

type GetProposalsReq struct {
	Proposal string `json:"proposal"`
	Group    string `json:"group"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type GetProposalResponse struct {
	Proposals []ProposalInfo `json:"proposals"`
	Total     uint64         `json:"total"`
}

func (s *Service) handleGetProposals(c *gin.Context) {
	var response GetProposalResponse
	response.Proposals = make([]ProposalInfo, 0)
	var requestData GetProposalsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if requestData.Proposal != "" {
		proposal, err := s.indexer.getProposal(requestData.Proposal)
		if err != nil {
			c.JSON(errStatus(err), gin.H{"error": err.Error()})
			return
		}
		info, err := s.getProposalInfo(proposal)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, info)
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}
	if requestData.Group == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proposal or group is required"})
		return
	}

	page, pageSize := pageOf(requestData.Page, requestData.PageSize)
	proposals, total, err := s.indexer.getProposalsByGroup(requestData.Group, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Total = total
	for _, proposal := range proposals {
		info, err := s.getProposalInfo(proposal)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, info)
	}
	c.JSON(http.StatusOK, response)
}

func (s *Service) getProposalInfo(proposal Proposal) (ProposalInfo, error) {
	votes, err := s.indexer.getVotesByProposal(proposal.Address)
	if err != nil {
		return ProposalInfo{}, err
	}
	return ProposalInfo{Proposal: proposal, Votes: votes}, nil
}

type GetTransactionsReq struct {
	Transaction string `json:"transaction"`
	Payer       string `json:"payer"`
	Page        int    `json:"page"`
	PageSize    int    `json:"pageSize"`
}

type GetTransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
	Total        uint64        `json:"total"`
}

func (s *Service) handleGetTransactions(c *gin.Context) {
	var response GetTransactionsResponse
	response.Transactions = make([]Transaction, 0)
	var requestData GetTransactionsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if requestData.Transaction != "" {
		t, err := s.indexer.getTransaction(requestData.Transaction)
		if err != nil {
			c.JSON(errStatus(err), gin.H{"error": err.Error()})
			return
		}
		response.Transactions = append(response.Transactions, t)
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}
	if requestData.Payer == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transaction or payer is required"})
		return
	}

	page, pageSize := pageOf(requestData.Page, requestData.PageSize)
	txs, total, err := s.indexer.getTransactionsByPayer(requestData.Payer, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Transactions = append(response.Transactions, txs...)
	response.Total = total
	c.JSON(http.StatusOK, response)
}
