package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/db"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app and the clients the service uses:
// Auth for sign-in, Firestore as the durable store and the Realtime Database
// as the notification push feed.
type App struct {
	FirebaseApp     *firebase.App
	AuthClient      *auth.Client
	FirestoreClient *firestore.Client
	DatabaseClient  *db.Client
}

// InitFirebase initializes the Firebase application and its clients
func InitFirebase(ctx context.Context, credentialsPath, databaseURL string) (*App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("Firebase credentials path not provided")
	}
	if databaseURL == "" {
		return nil, fmt.Errorf("Firebase database URL not provided")
	}

	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("Firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	firebaseApp, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: databaseURL}, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	firestoreClient, err := firebaseApp.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firestore client: %w", err)
	}

	databaseClient, err := firebaseApp.Database(ctx)
	if err != nil {
		firestoreClient.Close()
		return nil, fmt.Errorf("error getting realtime database client: %w", err)
	}

	logrus.Info("Firebase app, auth, firestore and realtime database clients initialized successfully!")
	return &App{
		FirebaseApp:     firebaseApp,
		AuthClient:      authClient,
		FirestoreClient: firestoreClient,
		DatabaseClient:  databaseClient,
	}, nil
}

// Close releases the Firestore connection.
func (a *App) Close() {
	if a.FirestoreClient != nil {
		if err := a.FirestoreClient.Close(); err != nil {
			logrus.Errorf("Error closing Firestore client: %v", err)
		}
	}
}
