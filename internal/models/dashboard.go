package models

type DashboardStats struct {
	TotalVideos           int64 `json:"total_videos"`
	TotalImages           int64 `json:"total_images"`
	TotalTransactions     int64 `json:"total_transactions"`
	TotalSpent            int64 `json:"total_spent"`
	CompletedTransactions int   `json:"completed_transactions"`
	PendingTransactions   int   `json:"pending_transactions"`
}

type RecentActivity struct {
	Videos     []Video     `json:"videos"`
	Images     []Image     `json:"images"`
	CreditLogs []CreditLog `json:"credit_logs"`
}

type DashboardResponse struct {
	User           UserProfileResponse `json:"user"`
	Stats          DashboardStats      `json:"stats"`
	RecentActivity RecentActivity      `json:"recent_activity"`
}
