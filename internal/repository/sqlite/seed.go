package sqlite

import (
	"fmt"

	"github.com/sakif/lms-server/internal/model"
)

// demoCatalog is the built-in course catalog. IDs are stable so enrollments
// survive restarts and the frontend can deep-link to them.
var demoCatalog = []model.Course{
	{
		ID:          "c101",
		Title:       "Full Stack Web Development with React and Node.js",
		Category:    "Web Development",
		Level:       "Beginner",
		Thumbnail:   "https://raw.githubusercontent.com/github/explore/main/topics/react/react.png",
		Description: "Build modern web applications with React and Node.js...",
		Syllabus:    []string{"HTML/CSS", "JS Basics", "React Fundamentals", "Node & Express", "MongoDB", "Auth", "Project"},
	},
	{
		ID:          "c102",
		Title:       "Python for Data Science",
		Category:    "Data Science",
		Level:       "Intermediate",
		Thumbnail:   "https://raw.githubusercontent.com/github/explore/main/topics/python/python.png",
		Description: "Learn Python, NumPy, pandas, ML basics...",
		Syllabus:    []string{"Python Basics", "pandas", "Matplotlib", "ML Intro", "Regression", "Classification", "Project"},
	},
	{
		ID:          "c103",
		Title:       "Java Programming Masterclass",
		Category:    "Programming",
		Level:       "Beginner",
		Thumbnail:   "https://raw.githubusercontent.com/github/explore/main/topics/java/java.png",
		Description: "Java OOP, collections, multithreading, projects...",
		Syllabus:    []string{"Java Basics", "OOP", "Collections", "Multithreading", "Exception Handling", "Project"},
	},
	{
		ID:          "c104",
		Title:       "Mobile App Development with Flutter",
		Category:    "Mobile Development",
		Level:       "Intermediate",
		Thumbnail:   "https://raw.githubusercontent.com/github/explore/main/topics/flutter/flutter.png",
		Description: "Build cross-platform apps with Flutter...",
		Syllabus:    []string{"Flutter Basics", "Widgets & Layouts", "State Management", "Networking", "Navigation", "Project"},
	},
	{
		ID:          "c105",
		Title:       "DevOps Fundamentals",
		Category:    "DevOps",
		Level:       "Advanced",
		Thumbnail:   "https://raw.githubusercontent.com/github/explore/main/topics/docker/docker.png",
		Description: "Learn Docker, Kubernetes, CI/CD pipelines...",
		Syllabus:    []string{"Docker", "Kubernetes", "CI/CD", "Monitoring", "Final Project"},
	},
	{
		ID:          "c106",
		Title:       "Deep Learning with AI",
		Category:    "AI & Deep Learning",
		Level:       "Advanced",
		Thumbnail:   "https://cdn.jsdelivr.net/gh/devicons/devicon/icons/tensorflow/tensorflow-original.svg",
		Description: "Learn deep learning, neural networks, and AI models...",
		Syllabus:    []string{"Neural Networks", "CNN", "RNN", "TensorFlow", "PyTorch", "Projects"},
	},
	{
		ID:          "c107",
		Title:       "Machine Learning with Python",
		Category:    "AI & Machine Learning",
		Level:       "Intermediate",
		Thumbnail:   "https://cdn.jsdelivr.net/gh/devicons/devicon/icons/scikitlearn/scikitlearn-original.svg",
		Description: "Learn ML algorithms, feature engineering, and model evaluation using Python.",
		Syllabus:    []string{"Data Preprocessing", "Supervised Learning", "Unsupervised Learning", "Model Evaluation", "Projects"},
	},
	{
		ID:          "c108",
		Title:       "Cloud Computing with AWS",
		Category:    "Cloud",
		Level:       "Advanced",
		Thumbnail:   "https://upload.wikimedia.org/wikipedia/commons/9/93/Amazon_Web_Services_Logo.svg",
		Description: "Master AWS cloud services, deployments, and cloud infrastructure management.",
		Syllabus:    []string{"EC2", "S3", "Lambda", "VPC", "CloudFormation", "Projects"},
	},
	{
		ID:          "c109",
		Title:       "Cybersecurity Fundamentals",
		Category:    "Security",
		Level:       "Beginner",
		Thumbnail:   "https://cdn-icons-png.flaticon.com/512/2306/2306268.png",
		Description: "Understand network security, encryption, and basic cybersecurity practices.",
		Syllabus:    []string{"Network Security", "Encryption", "Penetration Testing", "Firewalls", "Projects"},
	},
	{
		ID:          "c110",
		Title:       "Data Structures & Algorithms",
		Category:    "Programming",
		Level:       "Intermediate",
		Thumbnail:   "https://cdn.jsdelivr.net/gh/devicons/devicon/icons/cplusplus/cplusplus-original.svg",
		Description: "Master DSA concepts, problem-solving techniques, and interview preparation.",
		Syllabus:    []string{"Arrays & Strings", "Linked Lists", "Stacks & Queues", "Trees", "Graphs", "Sorting", "Searching", "Dynamic Programming"},
	},
}

// seedCourses inserts the demo catalog. INSERT OR IGNORE keeps it idempotent
// across restarts — rows already present (same primary key) are skipped, so
// instructor edits to other catalog entries are never clobbered.
func (db *DB) seedCourses() error {
	for i := range demoCatalog {
		course := demoCatalog[i]

		syllabus, err := encodeSyllabus(course.Syllabus)
		if err != nil {
			return err
		}

		_, err = db.conn.Exec(
			`INSERT OR IGNORE INTO courses (id, title, category, level, thumbnail, description, syllabus)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			course.ID,
			course.Title,
			course.Category,
			course.Level,
			course.Thumbnail,
			course.Description,
			syllabus,
		)
		if err != nil {
			return fmt.Errorf("seeding course %s: %w", course.ID, err)
		}
	}
	return nil
}
