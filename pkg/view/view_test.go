package view

import (
	"context"
	"testing"

	"github.com/Sternrassler/item-list-client/internal/testutil"
	"github.com/Sternrassler/item-list-client/pkg/client"
	"github.com/Sternrassler/item-list-client/pkg/controller"
	"github.com/Sternrassler/item-list-client/pkg/listing"
)

// runScenario mounts a controller against mock, applies setup, and waits for
// every fetch to settle.
func runScenario(t *testing.T, mock *testutil.MockCollection, opts controller.Options, setup func(*controller.Controller)) Screen {
	t.Helper()

	c, err := client.New(client.DefaultConfig(mock.URL()))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	ctrl, err := controller.New(c, opts)
	if err != nil {
		t.Fatalf("Failed to create controller: %v", err)
	}
	defer ctrl.Close()

	if err := ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	ctrl.Wait()
	if setup != nil {
		setup(ctrl)
		ctrl.Wait()
	}

	return Render(ctrl.Snapshot())
}

func TestScenario_SearchWidget(t *testing.T) {
	mock := testutil.NewMockCollection()
	defer mock.Close()

	mock.SetItemsResponse(testutil.NewJSONResponse(
		`{"items":[{"id":1,"name":"Widget","description":"A widget"}],"total_pages":3,"total_items":25}`,
	))

	screen := runScenario(t, mock, controller.Options{}, func(c *controller.Controller) {
		c.SetSearch("widget")
	})

	q := mock.LastQuery()
	if got := q.Encode(); got != "page=1&page_size=10&search=widget" {
		t.Errorf("request query = %q, want %q", got, "page=1&page_size=10&search=widget")
	}

	if screen.Body != BodyItems {
		t.Fatalf("Body = %v, want items", screen.Body)
	}
	if len(screen.Rows) != 1 || screen.Rows[0].Title != "Widget" || screen.Rows[0].Description != "A widget" {
		t.Errorf("Rows = %+v", screen.Rows)
	}
	if screen.Summary != "Page 1 of 3 • 25 items" {
		t.Errorf("Summary = %q", screen.Summary)
	}
	if !screen.CanNext {
		t.Error("Next should be enabled")
	}
	if screen.CanPrevious {
		t.Error("Previous should be disabled")
	}
}

func TestScenario_ServerError(t *testing.T) {
	mock := testutil.NewMockCollection()
	defer mock.Close()

	mock.SetItemsResponse(testutil.NewServerErrorResponse())

	screen := runScenario(t, mock, controller.Options{}, nil)

	if screen.Body != BodyError {
		t.Fatalf("Body = %v, want error", screen.Body)
	}
	if screen.Message != "Internal Server Error" {
		t.Errorf("Message = %q, want %q", screen.Message, "Internal Server Error")
	}
}

func TestScenario_EmptyResult(t *testing.T) {
	mock := testutil.NewMockCollection()
	defer mock.Close()

	mock.SetItemsResponse(testutil.NewJSONResponse(`{"items":[],"total_pages":0,"total_items":0}`))

	screen := runScenario(t, mock, controller.Options{}, func(c *controller.Controller) {
		if err := c.SetPageSize(100); err != nil {
			t.Fatalf("SetPageSize() error = %v", err)
		}
	})

	if got := mock.LastQuery().Encode(); got != "page=1&page_size=100" {
		t.Errorf("request query = %q", got)
	}
	if screen.Body != BodyEmpty || screen.Message != EmptyText {
		t.Errorf("Body/Message = %v/%q, want empty/%q", screen.Body, screen.Message, EmptyText)
	}
	if screen.Summary != "Page 0 of 0 • 0 items" {
		t.Errorf("Summary = %q", screen.Summary)
	}
	if screen.CanNext || screen.CanPrevious {
		t.Error("both navigation buttons should be disabled")
	}
}

func TestRender_Precedence(t *testing.T) {
	items := []listing.Item{{ID: listing.IntID(1), Name: "Item 1"}, {ID: listing.IntID(2), Name: "Item 2", Description: "Description for item 2"}}

	tests := []struct {
		name    string
		state   controller.State
		want    BodyKind
		message string
	}{
		{
			name:    "loading hides items",
			state:   controller.State{Page: 1, Items: items, Status: listing.Loading()},
			want:    BodyLoading,
			message: LoadingText,
		},
		{
			name:    "error hides items",
			state:   controller.State{Page: 1, Items: items, Status: listing.Failure("boom")},
			want:    BodyError,
			message: "boom",
		},
		{
			name:    "idle without items is empty",
			state:   controller.State{Page: 1, Status: listing.Idle()},
			want:    BodyEmpty,
			message: EmptyText,
		},
		{
			name:  "items",
			state: controller.State{Page: 1, Items: items, Status: listing.Success(listing.ResultSet{Items: items})},
			want:  BodyItems,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			screen := Render(tt.state)
			if screen.Body != tt.want {
				t.Errorf("Body = %v, want %v", screen.Body, tt.want)
			}
			if tt.message != "" && screen.Message != tt.message {
				t.Errorf("Message = %q, want %q", screen.Message, tt.message)
			}
		})
	}
}

func TestScreen_Lines(t *testing.T) {
	screen := Render(controller.State{
		Page:   1,
		Items:  []listing.Item{{ID: listing.IntID(1), Name: "Item 1"}, {ID: listing.IntID(2), Name: "Item 2", Description: "Description for item 2"}},
		Status: listing.Idle(),
	})

	want := []string{"Item 1", "Item 2", "  Description for item 2"}
	got := screen.Lines()
	if len(got) != len(want) {
		t.Fatalf("Lines() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Lines()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
