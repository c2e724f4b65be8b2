package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"travelog/config"
)

// Seeds the community posts feed with a handful of starter entries so a fresh
// deployment does not serve an empty /api/posts.

type seedPost struct {
	comment    string
	authorName string
	imageURL   string
	rating     int
}

var posts = []seedPost{
	{
		comment:    "Sunrise over Bromo was worth the 3am start. Bring a windbreaker!",
		authorName: "Ayu Lestari",
		imageURL:   "https://storage.googleapis.com/travelog-seed/bromo.jpg",
		rating:     5,
	},
	{
		comment:    "Kyoto in autumn: temples, momiji, and the best matcha I've ever had.",
		authorName: "Daniel Reyes",
		imageURL:   "https://storage.googleapis.com/travelog-seed/kyoto.jpg",
		rating:     5,
	},
	{
		comment:    "Lisbon trams are charming but pack light, the hills are no joke.",
		authorName: "Marta Silva",
		imageURL:   "https://storage.googleapis.com/travelog-seed/lisbon.jpg",
		rating:     4,
	},
	{
		comment:    "Overrated beach, underrated food scene. Go for the night markets.",
		authorName: "Ken Watanabe",
		imageURL:   "https://storage.googleapis.com/travelog-seed/phuket.jpg",
		rating:     3,
	},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	inserted := 0
	for _, p := range posts {
		var id string
		err := db.QueryRow(`
			INSERT INTO posts (comment, author_name, image_url, rating)
			SELECT $1, $2, $3, $4
			WHERE NOT EXISTS (
				SELECT 1 FROM posts WHERE comment = $1 AND author_name = $2
			)
			RETURNING id
		`, p.comment, p.authorName, p.imageURL, p.rating).Scan(&id)
		if err == sql.ErrNoRows {
			continue // already seeded
		}
		if err != nil {
			log.Fatalf("failed to seed post: %v", err)
		}
		inserted++
		fmt.Printf("seeded post: id=%s author=%s\n", id, p.authorName)
	}
	fmt.Printf("done, %d new posts\n", inserted)
}
