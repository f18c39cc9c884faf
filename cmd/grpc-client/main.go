package main

import (
	"context"
	"flag"
	"log"
	"time"

	usergrpc "usermgr/internal/grpc"
	"usermgr/internal/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Smoke test: create, read, update, list and delete one user over gRPC.
func main() {
	addr := flag.String("addr", "localhost:50051", "gRPC server address")
	flag.Parse()

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	client := usergrpc.NewUsersClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	created, err := client.CreateUser(ctx, &models.User{
		FullName:    "Ana García",
		Email:       "ana@example.com",
		PhoneNumber: "555-0100",
	})
	if err != nil {
		log.Fatalf("CreateUser failed: %v", err)
	}
	log.Printf("CreateUser: id=%d name=%q", created.ID, created.FullName)

	fetched, found, err := client.GetUser(ctx, created.ID)
	if err != nil {
		log.Fatalf("GetUser failed: %v", err)
	}
	if !found {
		log.Fatalf("GetUser: user %d not found right after create", created.ID)
	}
	log.Printf("GetUser: %+v", *fetched)

	updated, err := client.UpdateUser(ctx, created.ID, &models.User{
		FullName:    "Ana G.",
		Email:       fetched.Email,
		PhoneNumber: "555-0101",
	})
	if err != nil {
		log.Fatalf("UpdateUser failed: %v", err)
	}
	log.Printf("UpdateUser: name=%q phone=%q", updated.FullName, updated.PhoneNumber)

	users, err := client.ListUsers(ctx)
	if err != nil {
		log.Fatalf("ListUsers failed: %v", err)
	}
	log.Printf("ListUsers: %d user(s)", len(users))

	if err := client.DeleteUser(ctx, created.ID); err != nil {
		log.Fatalf("DeleteUser failed: %v", err)
	}
	log.Printf("DeleteUser: removed %d", created.ID)
}
