package models

import "time"

// seedTime is the fixed creation date of the default records.
var seedTime = time.Date(2024, time.September, 2, 8, 0, 0, 0, time.UTC)

// SeedUsers returns the default user accounts.
func SeedUsers() []User {
	return []User{
		{ID: "u1", Name: "Bakayoko", FirstName: "Jean-Marc", Email: "jean@akwaba.ci", Role: RoleStudent, Avatar: "https://i.pravatar.cc/150?u=u1", CreatedAt: seedTime},
		{ID: "u2", Name: "Konan", FirstName: "Amani", Email: "amani@akwaba.ci", Role: RoleInstructor, Avatar: "https://i.pravatar.cc/150?u=u2", CreatedAt: seedTime},
		{ID: "u3", Name: "Admin", FirstName: "Akwaba", Email: "admin@akwaba.ci", Role: RoleAdmin, Avatar: "https://i.pravatar.cc/150?u=u3", CreatedAt: seedTime},
		{ID: "u4", Name: "Ouattara", FirstName: "Sali", Email: "sali@akwaba.ci", Role: RoleEditor, Avatar: "https://i.pravatar.cc/150?u=u4", CreatedAt: seedTime},
	}
}

// SeedCourses returns the default catalogue.
func SeedCourses() []Course {
	return []Course{
		{
			ID:           "c1",
			Title:        "Digital Marketing for Ivorian SMEs",
			Category:     "Business",
			InstructorID: "u2",
			Thumbnail:    "https://images.unsplash.com/photo-1557838923-2985c318be48?auto=format&fit=crop&q=80&w=800",
			Description:  "Learn to take your local business online with modern tools.",
			CreatedAt:    seedTime,
			Modules: []Module{
				{
					ID:          "m1",
					Title:       "Introduction to the Web",
					VideoURL:    "https://www.w3schools.com/html/mov_bbb.mp4",
					VideoType:   VideoFile,
					Description: "The basics of online visibility.",
				},
				{
					ID:          "m2",
					Title:       "Social Networks and Sales",
					VideoURL:    "https://www.youtube.com/embed/dQw4w9WgXcQ",
					VideoType:   VideoURL,
					Description: "Turning likes into sales.",
					Quiz: []QuizQuestion{
						{
							ID:           "q1",
							Text:         "What are the colours of the Ivorian flag?",
							Options:      []string{"Blue, White, Red", "Orange, White, Green", "Yellow, Green, Red"},
							CorrectIndex: 1,
						},
						{
							ID:           "q2",
							Text:         "Which social network is most used for local commerce?",
							Options:      []string{"LinkedIn", "WhatsApp Business", "Twitter"},
							CorrectIndex: 1,
						},
					},
				},
			},
		},
	}
}

// SeedEnrollments returns the default enrollment rows.
func SeedEnrollments() []Enrollment {
	return []Enrollment{
		{UserID: "u1", CourseID: "c1", EnrolledAt: seedTime, Progress: 0},
	}
}

// SeedMessages returns the default (empty) message log.
func SeedMessages() []ChatMessage {
	return []ChatMessage{}
}
