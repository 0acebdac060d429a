package assistant

// Doc is one entry of the knowledge base the chatbot answers from.
type Doc struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// KnowledgeBase returns the project documentation the chatbot draws on.
func KnowledgeBase() []Doc {
	return []Doc{
		{
			ID:    "project_description",
			Title: "Bus Pass Management System",
			Content: "The Bus Pass Management System is a comprehensive digital solution designed to streamline " +
				"the process of managing bus passes for students and staff. It provides a user-friendly interface " +
				"for applying, renewing, and managing bus passes efficiently.",
		},
		{
			ID:    "features",
			Title: "Key features",
			Content: "Key Features: 1. Digital Application Process 2. Real-time Status Tracking " +
				"3. Automated Renewal System 4. Digital Pass Storage 5. Admin Dashboard for Verification " +
				"6. User Profile Management",
		},
		{
			ID:    "benefits",
			Title: "Benefits",
			Content: "Benefits: 1. Reduced Paperwork: Eliminates the need for physical documents " +
				"2. Time Efficiency: Faster processing and approval 3. Easy Access: Digital passes accessible anytime " +
				"4. Environment Friendly: Reduces paper waste 5. Better Organization: Centralized management system",
		},
		{
			ID:    "how_it_works",
			Title: "How it works",
			Content: "How it works: 1. Users register and create an account 2. Fill out the bus pass application form " +
				"3. Upload required documents 4. Submit for approval 5. Track application status " +
				"6. Receive digital pass upon approval 7. Use digital pass for bus travel",
		},
	}
}
