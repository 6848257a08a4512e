package main

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"splitLines/vector"
)

const (
	// MCPPort is the default port on which the MCP server will run
	MCPPort = "8081"
	// MCPEndpointPath is the path for the MCP endpoint
	MCPEndpointPath = "/mcp"
)

// newMCPServer builds the MCP HTTP Stream server exposing the split tool
func newMCPServer(logger *zap.Logger) *server.StreamableHTTPServer {
	// Initialize the MCP server with a name and version
	mcpServer := server.NewMCPServer(
		"SplitLines",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	// Define tools
	splitVectorLines := mcp.NewTool("split_vector_lines",
		mcp.WithDescription("Break the lines of a GeoJSON FeatureCollection into equal-length segments. "+
			"Every segment gets FID and PARENT_FID properties plus a copy of its source feature's properties."),
		mcp.WithTitleAnnotation("Split Vector Lines"),
		mcp.WithString("feature_collection",
			mcp.Required(),
			mcp.Description("GeoJSON FeatureCollection of LineString or MultiLineString features"),
		),
		mcp.WithNumber("max_segment_length",
			mcp.Required(),
			mcp.Description("Maximum segment length, in the units of the input coordinates"),
		),
		mcp.WithBoolean("geographic",
			mcp.Description("Coordinates are lon/lat; validate them and report geodesic length in km"),
		))

	// Register the tool with the server
	mcpServer.AddTool(splitVectorLines, HandleSplitVectorLines(logger))

	// Set HTTP Streaming server endpoint
	return server.NewStreamableHTTPServer(mcpServer, server.WithEndpointPath(MCPEndpointPath))
}

// HandleSplitVectorLines returns the handler for the split_vector_lines tool of the mcp server
func HandleSplitVectorLines(logger *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fc, err := request.RequireString("feature_collection")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		maxSegmentLength, err := request.RequireFloat("max_segment_length")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		geographic := request.GetBool("geographic", false)

		out, summary, err := splitLines(ctx, logger, uuid.NewString(), []byte(fc), maxSegmentLength, geographic)
		if err != nil {
			return mcp.NewToolResultError(errorKind(err) + ": " + err.Error()), nil
		}

		data, err := vector.MarshalGeoJSON(out)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		jsonBytes, err := json.MarshalIndent(SplitResponse{Summary: summary, FeatureCollection: data}, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(string(jsonBytes)), nil
	}
}
